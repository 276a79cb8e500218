package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/infra/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued delivery jobs and fan them out to the sinks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.RabbitMQ == nil {
			return eris.New("worker requires rabbitmq.url")
		}

		w := queue.NewDeliveryWorker(env.RabbitMQ.Ch, env.Fanout)
		if err := w.Run(ctx); err != nil {
			return eris.Wrap(err, "delivery worker")
		}
		zap.L().Info("worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
