package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/config"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/logx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/postgres"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/redisx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logx.New(cfg.ServiceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB + migrations
	if err := postgres.Migrate(cfg.PostgresDSN, "migrations"); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, satu per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, logger)
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024, logger)
	pCanceled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCanceled, 1024, logger)
	pTransferred := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockTransferred, 1024, logger)
	producers := []*kafkax.Producer{pCreated, pPaid, pCanceled, pTransferred}
	for _, p := range producers {
		p.Start(ctx)
	}

	// Repo & handler
	repo := &orders.Repo{DB: db, Hold: cfg.PaymentHold, ShipOffset: cfg.ShipOffset}
	router := httpx.NewRouter(logger)
	oh := &httpx.OrdersHandler{
		Repo:                repo,
		Warehouses:          &warehouse.Repo{DB: db},
		ProducerCreated:     pCreated,
		ProducerPaid:        pPaid,
		ProducerCanceled:    pCanceled,
		ProducerTransferred: pTransferred,
		Cache:               &redisx.Cache{R: rdb},
		Service:             cfg.ServiceName,
		AssetDir:            cfg.AssetDir,
	}
	oh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close() // tutup inbox -> flush & close writer
	}
	cancel()
	for _, p := range producers {
		p.WaitClosed() // drain
	}
}
