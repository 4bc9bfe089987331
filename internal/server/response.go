package server

import (
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/buysell/internal/apperr"
)

const ctxAccountID = "account_id"

func accountID(ctx iris.Context) int64 {
	return ctx.Values().GetInt64Default(ctxAccountID, 0)
}

func ok(ctx iris.Context, data interface{}) {
	_ = ctx.JSON(iris.Map{"code": 0, "data": data})
}

func created(ctx iris.Context, data interface{}) {
	ctx.StatusCode(iris.StatusCreated)
	ok(ctx, data)
}

// fail 按错误类别输出统一错误结构，内部错误只记日志不外泄
func fail(ctx iris.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if kind == apperr.KindInternal {
		zap.L().Error("request failed",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Error(err))
	}
	ctx.StopWithJSON(status, iris.Map{
		"code": status,
		"kind": kind,
		"msg":  apperr.Message(err),
	})
}

func readJSON(ctx iris.Context, v interface{}) error {
	if err := ctx.ReadJSON(v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

// readStrictJSON 拒绝未知字段，用于部分更新接口
func readStrictJSON(ctx iris.Context, v interface{}) error {
	if err := ctx.ReadJSON(v, iris.JSONReader{DisallowUnknownFields: true}); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
