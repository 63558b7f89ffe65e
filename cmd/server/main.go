package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopkeeper/retail-assistant/app/barcode"
	"github.com/shopkeeper/retail-assistant/app/catalog"
	"github.com/shopkeeper/retail-assistant/app/categories"
	"github.com/shopkeeper/retail-assistant/app/config"
	"github.com/shopkeeper/retail-assistant/app/events"
	"github.com/shopkeeper/retail-assistant/app/logger"
	"github.com/shopkeeper/retail-assistant/app/ocr"
	"github.com/shopkeeper/retail-assistant/app/router"
	"github.com/shopkeeper/retail-assistant/app/sales"
	"github.com/shopkeeper/retail-assistant/models"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env)

	db, err := models.Connect(models.DBOptions{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		Debug:           cfg.Env == "development",
	})
	if err != nil {
		logr.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				logr.Error("error closing database", "err", cerr)
			}
		}
	}()

	if cfg.DBAutoMigrate {
		if err := models.AutoMigrate(db, logr); err != nil {
			logr.Error("database migrations failed", "err", err)
			os.Exit(1)
		}
	}

	publisher := events.Publisher(events.NopPublisher{})
	if cfg.RabbitMQURI != "" {
		p, err := events.Dial(cfg.RabbitMQURI, cfg.SalesQueue)
		if err != nil {
			logr.Error("failed to connect rabbitmq", "err", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
		logr.Info("publishing sales events", "queue", cfg.SalesQueue)
	} else {
		logr.Info("RABBITMQ_URI not set, sales events disabled")
	}

	upstream := &http.Client{Timeout: cfg.UpstreamTimeout}

	barcodeClient := barcode.NewClient(cfg.BarcodeAPIURL, cfg.BarcodeAppCode, upstream)
	lookup := barcode.NewCachedLookup(barcodeClient, cfg.BarcodeCacheSize, cfg.BarcodeCacheTTL, logr)

	ocrClient := ocr.NewClient(cfg.OCREndpoint, cfg.OCRRegion, ocr.Credential{
		SecretID:  cfg.OCRSecretID,
		SecretKey: cfg.OCRSecretKey,
	}, upstream)

	handler := router.New(router.Handlers{
		Categories: categories.NewCategoryHandler(models.NewCategoriesRepository(db), logr),
		Catalog:    catalog.NewCatalogHandler(models.NewGoodsRepository(db), logr),
		Sales:      sales.NewSalesHandler(models.NewSalesRepository(db), publisher, logr),
		Barcode:    barcode.NewBarcodeHandler(lookup, logr),
		OCR:        ocr.NewOCRHandler(ocrClient, logr),
	}, logr)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	go func() {
		logr.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	s := <-quit
	logr.Info("shutting down", "signal", s.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", "err", err)
	}
	logr.Info("server stopped")
}
