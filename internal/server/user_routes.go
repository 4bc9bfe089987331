package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/buysell/internal/datamodels/account"
)

func registerUserRoutes(p iris.Party, d *Deps) {
	p.Get("/users/me", func(ctx iris.Context) {
		a, err := d.Accounts.GetProfile(ctx.Request().Context(), accountID(ctx))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, a)
	})

	p.Patch("/users/me", func(ctx iris.Context) {
		var patch account.ProfilePatch
		if err := readStrictJSON(ctx, &patch); err != nil {
			fail(ctx, err)
			return
		}
		a, err := d.Accounts.UpdateProfile(ctx.Request().Context(), accountID(ctx), &patch)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, a)
	})

	p.Get("/users/{id:int64}/reviews", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		list, err := d.Accounts.ListSellerReviews(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	p.Post("/users/{id:int64}/reviews", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var in account.ReviewInput
		if err := readJSON(ctx, &in); err != nil {
			fail(ctx, err)
			return
		}
		list, err := d.Accounts.AddSellerReview(ctx.Request().Context(), accountID(ctx), id, in)
		if err != nil {
			fail(ctx, err)
			return
		}
		created(ctx, list)
	})
}
