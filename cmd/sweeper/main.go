package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/config"
	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/logx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/postgres"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logx.New(cfg.ServiceName + "-sweeper")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: order.canceled
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCanceled, 1024, logger)
	prod.Start(ctx)

	repo := &orders.Repo{DB: db, Hold: cfg.PaymentHold, ShipOffset: cfg.ShipOffset}
	sweeper := &orders.Sweeper{Store: repo, Log: logger}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	logger.Info().Dur("interval", cfg.SweepInterval).Msg("expiry sweeper started")
	for {
		select {
		case <-sig:
			logger.Info().Msg("shutting down sweeper...")
			cancel()
			prod.Close()
			prod.WaitClosed()
			return
		case <-ticker.C:
			runSweep(ctx, logger, rdb, sweeper, prod, cfg.ServiceName+"-sweeper", cfg.SweepInterval)
		}
	}
}

func runSweep(ctx context.Context, logger zerolog.Logger, rdb *redis.Client, sweeper *orders.Sweeper, prod *kafkax.Producer, service string, interval time.Duration) {
	// lock biar cuma satu instance yang sweep per interval
	ok, err := rdb.SetNX(ctx, redisx.KeySweepLock, "1", interval).Result()
	if err != nil {
		logger.Error().Err(err).Msg("sweep lock")
		return
	}
	if !ok {
		return // instance lain yang pegang
	}

	report, err := sweeper.Sweep(ctx, time.Now().UTC())
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return
	}

	for _, orderID := range report.Cancelled {
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderCanceled,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      service,
			CorrelationID: orderID,
			Payload: kafkax.MustMarshal(orders.OrderCanceledPayload{
				OrderID: orderID, Source: orders.SourceSystem,
			}),
		}
		prod.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCanceled)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	logger.Info().
		Int("cancelled", len(report.Cancelled)).
		Int("failed", len(report.Failed)).
		Interface("report", report).
		Msg("sweep completed")
}
