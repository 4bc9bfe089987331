package server

import (
	"github.com/kataras/iris/v12"
)

func registerOrderRoutes(p iris.Party, d *Deps) {
	orders := p.Party("/orders")

	// 结算购物车
	orders.Post("/", func(ctx iris.Context) {
		results, err := d.Orders.Checkout(ctx.Request().Context(), accountID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		created(ctx, results)
	})

	// 卖家凭收货码确认交付
	orders.Post("/{id:int64}/complete", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			OTP string `json:"otp"`
		}
		if err := readJSON(ctx, &req); err != nil {
			fail(ctx, err)
			return
		}
		o, err := d.Orders.ConfirmDelivery(ctx.Request().Context(), accountID(ctx), id, req.OTP)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	orders.Post("/{id:int64}/regenerate-otp", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		res, err := d.Orders.RegenerateCode(ctx.Request().Context(), accountID(ctx), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, res)
	})

	orders.Get("/pending-deliveries", func(ctx iris.Context) {
		list, err := d.Orders.ListPendingForSeller(ctx.Request().Context(), accountID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	orders.Get("/buyer", func(ctx iris.Context) {
		list, err := d.Orders.ListForBuyer(ctx.Request().Context(), accountID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	orders.Get("/seller", func(ctx iris.Context) {
		list, err := d.Orders.ListForSeller(ctx.Request().Context(), accountID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})
}
