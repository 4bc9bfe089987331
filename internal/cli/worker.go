package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/buysell/internal/infra/mq"
	"github.com/example/buysell/internal/worker"
)

func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume order events from RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), rootOpts)
		},
	}
}

func runWorker(parent context.Context, opts *RootOptions) error {
	rt, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.connectMQ(); err != nil {
		return err
	}
	sub, err := mq.Subscribe(rt.mqConn, &rt.cfg.RabbitMQ, worker.RoutingKeys...)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(rt.store.Orders, rt.monitor)
	w.StatsInterval = rt.cfg.RabbitMQ.StatsInterval
	if err := w.Run(ctx, sub.Deliveries); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
