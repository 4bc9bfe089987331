package server

import (
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/buysell/internal/apperr"
	"github.com/example/buysell/internal/datamodels/account"
)

func registerAuthRoutes(p iris.Party, d *Deps) {
	p.Post("/register", func(ctx iris.Context) {
		var in account.RegisterInput
		if err := readJSON(ctx, &in); err != nil {
			fail(ctx, err)
			return
		}
		res, err := d.Accounts.Register(ctx.Request().Context(), in)
		if err != nil {
			fail(ctx, err)
			return
		}
		created(ctx, res)
	})

	p.Post("/login", func(ctx iris.Context) {
		var in account.LoginInput
		if err := readJSON(ctx, &in); err != nil {
			fail(ctx, err)
			return
		}
		res, err := d.Accounts.Login(ctx.Request().Context(), in)
		if err != nil {
			// 人机验证失败与密码错误对外一致
			if apperr.Is(err, apperr.KindAuthChallenge) {
				err = apperr.InvalidCredentials()
			}
			fail(ctx, err)
			return
		}
		ok(ctx, res)
	})

	// CAS 单点登录
	p.Get("/cas", func(ctx iris.Context) {
		ctx.Redirect(d.CAS.LoginURL(), iris.StatusFound)
	})

	p.Get("/cas/callback", func(ctx iris.Context) {
		user, err := d.CAS.Validate(ctx.Request().Context(), ctx.URLParam("ticket"))
		if err != nil {
			zap.L().Warn("cas ticket validation failed", zap.Error(err))
			fail(ctx, apperr.AuthChallenge("single sign-on failed"))
			return
		}
		res, err := d.Accounts.LoginExternal(ctx.Request().Context(), user)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, res)
	})
}
