package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zachow1/pdv-medusax8-sub000/internal/config"
	"github.com/zachow1/pdv-medusax8-sub000/internal/infra"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
	"github.com/zachow1/pdv-medusax8-sub000/internal/router"
	"github.com/zachow1/pdv-medusax8-sub000/internal/worker"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Async workers (fiscal emission, receipt PDF + email) are wired here,
	// the composition root, so the pool has every infrastructure dependency.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fiscalClient := infra.NewFiscalClient(cfg.FiscalSidecarURL)
	fiscalCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	dispatcher := worker.NewDispatcher(rdb)
	fiscalRepo := repository.NewFiscalRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	handlers := worker.Handlers{
		Fiscal: worker.NewFiscalWorker(fiscalClient, fiscalRepo, saleRepo, dispatcher, cfg.ReceiptStoragePath, cfg.IssuerTaxID),
		Email:  worker.NewEmailWorker(mailer),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		FiscalRepo:  fiscalRepo,
		SaleRepo:    saleRepo,
		Client:      fiscalClient,
		CB:          fiscalCB,
		RDB:         rdb,
		IssuerTaxID: cfg.IssuerTaxID,
	})

	r := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("pdv backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
