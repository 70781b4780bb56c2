// Command deal-events consumes deal status change events from AMQP and
// logs each one.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dealtracker/internal/amqp"
	"dealtracker/internal/cli"
	"dealtracker/internal/config"
	applog "dealtracker/internal/log"
)

func main() {
	cfg, logger := cli.Setup()
	if cfg.AMQPURL == "" || cfg.AMQPQueue == "" {
		logger.Error("AMQP_URL and AMQP_QUEUE are required")
		os.Exit(cli.ExitUsage)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(cli.ExitFailure)
	}
	logger.Info("Consumer stopped")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	client, err := amqp.NewClient(amqp.Config{
		URL:        cfg.AMQPURL,
		Exchange:   cfg.AMQPExchange,
		RoutingKey: cfg.AMQPRoutingKey,
		Queue:      cfg.AMQPQueue,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	events := logger.WithComponent(applog.ComponentAMQP)
	logger.Info("Consuming deal status events", "queue", cfg.AMQPQueue)
	err = client.Consume(ctx, func(ctx context.Context, msg *amqp.DealStatusChanged) error {
		events.InfoContext(ctx, "Deal status changed",
			applog.FieldDealID, msg.DealID,
			applog.FieldStatusFrom, msg.From,
			applog.FieldStatusTo, msg.To,
			"total_received", msg.TotalReceived,
			"total_paid", msg.TotalPaid)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
