package server

import (
	"github.com/kataras/iris/v12"

	"github.com/example/buysell/internal/auth"
	"github.com/example/buysell/internal/infra/cas"
	"github.com/example/buysell/internal/middleware"
	"github.com/example/buysell/internal/repository/gormrepo"
	"github.com/example/buysell/internal/service"
)

// Deps 路由依赖，由 cli 在启动时组装
type Deps struct {
	Store    *gormrepo.Store
	Gate     *auth.Gate
	CAS      *cas.Client
	Monitor  *service.Monitor
	Accounts *service.AccountService
	Listings *service.ListingService
	Carts    *service.CartService
	Orders   *service.OrderService

	// AuthLimiter 作用于 /api/auth/*，为 nil 时不限流
	AuthLimiter *middleware.TokenBucket
}

// NewApp 创建 iris 应用并注册全部路由
func NewApp(d *Deps) *iris.Application {
	app := iris.New()
	app.Logger().SetLevel("warn")
	app.Use(middleware.RequestLogger())
	RegisterRoutes(app, d)
	return app
}

// RegisterRoutes 注册所有 HTTP 路由
func RegisterRoutes(app *iris.Application, d *Deps) {
	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		status := "ok"
		if sqlDB, err := d.Store.DB().DB(); err != nil || sqlDB.PingContext(ctx.Request().Context()) != nil {
			status = "degraded"
		}
		ok(ctx, iris.Map{"status": status, "stats": d.Monitor.GetStats()})
	})

	authParty := api.Party("/auth")
	if d.AuthLimiter != nil {
		authParty.Use(middleware.RateLimit(d.AuthLimiter))
	}
	registerAuthRoutes(authParty, d)

	// 需要登录的接口
	authAPI := api.Party("/", requireAuth(d.Gate))
	registerUserRoutes(authAPI, d)
	registerItemRoutes(authAPI, d)
	registerCartRoutes(authAPI, d)
	registerOrderRoutes(authAPI, d)
}

// requireAuth 校验 bearer token，把账户 ID 写入上下文
func requireAuth(gate *auth.Gate) iris.Handler {
	return func(ctx iris.Context) {
		claims, err := gate.Authenticate(ctx.Request().Context(), ctx.GetHeader("Authorization"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.Values().Set(ctxAccountID, claims.AccountID)
		ctx.Next()
	}
}
