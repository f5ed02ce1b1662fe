package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/config"
	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/logx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/redisx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/statuscache"
	"github.com/joho/godotenv"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logx.New(cfg.ServiceName + "-statuscache")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &statuscache.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-statuscache",
		Log:         logger,
	}

	group := getenv("STATUSCACHE_GROUP", "statuscache-svc")
	workers := mustAtoi(os.Getenv("STATUSCACHE_WORKERS"), "4")

	// satu consumer per topic order lifecycle
	topics := []string{orders.TopicOrderCreated, orders.TopicOrderPaid, orders.TopicOrderCanceled}
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, logger)
		go func(topic string) {
			logger.Info().Str("group", group).Str("topic", topic).Int("workers", workers).
				Msg("statuscache consumer started")
			if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
				logger.Error().Err(err).Str("topic", topic).Msg("consumer exit")
				cancel()
			}
		}(topic)
	}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info().Msg("shutting down consumers...")
		cancel()
	case <-ctx.Done():
	}
}
