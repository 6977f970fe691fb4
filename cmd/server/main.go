package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medworld/product-search/internal/catalog"
	"github.com/medworld/product-search/internal/clients/chroma"
	"github.com/medworld/product-search/internal/clients/embedder"
	"github.com/medworld/product-search/internal/clients/rediscache"
	apphttp "github.com/medworld/product-search/internal/http"
	"github.com/medworld/product-search/internal/http/handlers"
	"github.com/medworld/product-search/internal/observability"
	"github.com/medworld/product-search/internal/pkg/logger"
	"github.com/medworld/product-search/internal/services"
	"github.com/medworld/product-search/internal/utils"
)

const serviceName = "product-search"

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("DEPLOY_ENV", "dev", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(sctx)
	}()

	// Env
	log.Info("Loading environment variables from main...")
	addr := utils.GetEnv("HTTP_ADDR", ":8080", log)
	chromaURL := utils.GetEnv("CHROMA_URL", "http://localhost:8000", log)
	embedderURL := utils.GetEnv("EMBEDDER_URL", "http://localhost:8090", log)
	textCollection := utils.GetEnv("TEXT_COLLECTION", "products_text", log)
	imageCollection := utils.GetEnv("IMAGE_COLLECTION", "products_image", log)
	corsOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)
	listLimit := utils.GetEnvAsInt("PRODUCT_LIST_LIMIT", 1000, log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)

	// Clients
	log.Info("Setting up clients from main...")
	chromaClient, err := chroma.New(log, chroma.Config{BaseURL: chromaURL})
	if err != nil {
		log.Error("Could not init Chroma client", "error", err)
		os.Exit(1)
	}
	textIndex, err := chroma.NewCollection(ctx, log, chromaClient, textCollection)
	if err != nil {
		log.Error("Could not resolve text collection", "error", err)
		os.Exit(1)
	}
	imageIndex, err := chroma.NewCollection(ctx, log, chromaClient, imageCollection)
	if err != nil {
		log.Error("Could not resolve image collection", "error", err)
		os.Exit(1)
	}

	embedClient, err := embedder.New(log, embedder.Config{BaseURL: embedderURL})
	if err != nil {
		log.Error("Could not init embedder client", "error", err)
		os.Exit(1)
	}

	var embed catalog.Embedder = embedClient
	if redisAddr != "" {
		cache, err := rediscache.New(log, rediscache.Config{Addr: redisAddr}, embedClient)
		if err != nil {
			log.Warn("Redis embed cache init failed, continuing without cache", "error", err)
		} else {
			defer cache.Close()
			embed = cache
		}
	}

	// Services
	log.Info("Setting up services from main...")
	mutator := catalog.NewMutator(log, textIndex, imageIndex, embed)
	searchService := services.NewSearchService(log, textIndex, imageIndex, embed, listLimit)
	productService := services.NewProductService(log, mutator)

	// Handlers
	productHandler := handlers.NewProductHandler(log, productService, searchService)
	searchHandler := handlers.NewSearchHandler(log, searchService)

	// Server
	srv := apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		CORSOrigins:    corsOrigins,
		ProductHandler: productHandler,
		SearchHandler:  searchHandler,
	})

	go func() {
		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()
		log.Info("Shutdown signal received, draining...")
		dctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(dctx); err != nil {
			log.Warn("Shutdown did not drain cleanly", "error", err)
		}
	}()

	log.Info("Starting HTTP server", "addr", addr)
	if err := srv.Run(addr); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
	log.Info("HTTP server stopped")
}
