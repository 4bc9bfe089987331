package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/buysell/internal/datamodels/listing"
)

func registerItemRoutes(p iris.Party, d *Deps) {
	items := p.Party("/items")

	items.Post("/", func(ctx iris.Context) {
		var in listing.CreateInput
		if err := readJSON(ctx, &in); err != nil {
			fail(ctx, err)
			return
		}
		l, err := d.Listings.Create(ctx.Request().Context(), accountID(ctx), in)
		if err != nil {
			fail(ctx, err)
			return
		}
		created(ctx, l)
	})

	// 商品列表：search 按名称模糊匹配，categories 逗号分隔
	items.Get("/", func(ctx iris.Context) {
		cats, err := listing.ParseCategories(ctx.URLParam("categories"))
		if err != nil {
			fail(ctx, err)
			return
		}
		list, err := d.Listings.List(ctx.Request().Context(), listing.Filter{
			Search:     ctx.URLParam("search"),
			Categories: cats,
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	items.Get("/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		l, err := d.Listings.Get(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, l)
	})

	items.Patch("/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var patch listing.Patch
		if err := readStrictJSON(ctx, &patch); err != nil {
			fail(ctx, err)
			return
		}
		l, err := d.Listings.Update(ctx.Request().Context(), accountID(ctx), id, &patch)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, l)
	})

	items.Delete("/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := d.Listings.Delete(ctx.Request().Context(), accountID(ctx), id); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"id": id})
	})

	items.Post("/{id:int64}/reviews", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var in listing.ReviewInput
		if err := readJSON(ctx, &in); err != nil {
			fail(ctx, err)
			return
		}
		l, err := d.Listings.AddReview(ctx.Request().Context(), accountID(ctx), id, in)
		if err != nil {
			fail(ctx, err)
			return
		}
		created(ctx, l)
	})
}
