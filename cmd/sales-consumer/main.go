// Command sales-consumer tallies sales.created events from RabbitMQ and logs
// the running totals on shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopkeeper/retail-assistant/app/config"
	"github.com/shopkeeper/retail-assistant/app/events"
	"github.com/shopkeeper/retail-assistant/app/logger"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", "err", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConsumer()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env)

	conn, err := amqp.Dial(cfg.RabbitMQURI)
	if err != nil {
		logr.Error("failed to connect rabbitmq", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tally := events.NewTally()
	logr.Info("starting sales consumer", "queue", cfg.SalesQueue, "workers", cfg.ConsumerWorkers)

	err = events.Consume(ctx, conn, cfg.SalesQueue, cfg.ConsumerWorkers, logr, func(ev events.SalesCreated) {
		tally.Add(ev)
		logr.Debug("sales event received", "order_no", ev.OrderNo, "total", ev.Total, "lines", len(ev.Lines))
	})
	if err != nil {
		logr.Error("consumer stopped", "err", err)
	}

	orders, goods := tally.Snapshot()
	logr.Info("sales tally", "orders", orders, "goods", len(goods))
	for _, g := range goods {
		logr.Info("sales tally goods", "goods_id", g.GoodsID, "quantity", g.Quantity)
	}
}
