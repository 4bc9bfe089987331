package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/kataras/iris/v12"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/buysell/internal/infra/database"
	"github.com/example/buysell/internal/infra/mq"
	"github.com/example/buysell/internal/server"
	"github.com/example/buysell/internal/service"
)

// ServeOptions serve 参数
type ServeOptions struct {
	*RootOptions
	AutoMigrate bool
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.AutoMigrate, "migrate", false, "run schema migration before serving")
	return cmd
}

func runServe(parent context.Context, opts *ServeOptions) error {
	rt, err := bootstrap(opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	if opts.AutoMigrate {
		if err := database.Migrate(rt.db); err != nil {
			return err
		}
	}
	rt.connectRedis()

	var events service.EventPublisher = service.NopPublisher{}
	switch err := rt.connectMQ(); {
	case errors.Is(err, mq.ErrDisabled):
		zap.L().Info("rabbitmq disabled, order events are not published")
	case err != nil:
		zap.L().Warn("rabbitmq unavailable, order events are not published", zap.Error(err))
	default:
		pub, err := mq.NewPublisher(rt.mqConn, rt.cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		events = pub
	}

	app := server.NewApp(rt.serverDeps(events))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("http shutdown", zap.Error(err))
		}
	}()

	addr := rt.cfg.Server.Addr()
	zap.L().Info("web server listening", zap.String("addr", addr))
	err = app.Run(iris.Addr(addr), iris.WithoutInterruptHandler, iris.WithoutServerError(iris.ErrServerClosed))
	if err != nil {
		return err
	}
	return nil
}
