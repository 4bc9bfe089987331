package server

import (
	"github.com/kataras/iris/v12"
)

func registerCartRoutes(p iris.Party, d *Deps) {
	p.Get("/cart", func(ctx iris.Context) {
		list, err := d.Carts.List(ctx.Request().Context(), accountID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	p.Post("/cart/{itemId:int64}", func(ctx iris.Context) {
		itemID, _ := ctx.Params().GetInt64("itemId")
		list, err := d.Carts.Add(ctx.Request().Context(), accountID(ctx), itemID)
		if err != nil {
			fail(ctx, err)
			return
		}
		created(ctx, list)
	})

	p.Delete("/cart/{itemId:int64}", func(ctx iris.Context) {
		itemID, _ := ctx.Params().GetInt64("itemId")
		list, err := d.Carts.Remove(ctx.Request().Context(), accountID(ctx), itemID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	p.Delete("/cart", func(ctx iris.Context) {
		if err := d.Carts.Clear(ctx.Request().Context(), accountID(ctx)); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, []interface{}{})
	})
}
