package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pokefigs/storefront/internal/cache"
	"github.com/pokefigs/storefront/internal/config"
	storehttp "github.com/pokefigs/storefront/internal/http"
	"github.com/pokefigs/storefront/internal/logger"
	"github.com/pokefigs/storefront/internal/repository"
	"github.com/pokefigs/storefront/internal/service"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		zlog.Fatalw("mongodb connection failed", "err", err)
	}

	productRepo := repository.NewMongoProductRepository(db)
	if err := productRepo.CreateIndexes(ctx); err != nil {
		zlog.Fatalw("product indexes failed", "err", err)
	}
	cartRepo := repository.NewMongoCartRepository(db)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		zlog.Fatalw("cart indexes failed", "err", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The cart cache degrades gracefully behind its breaker, so a
		// missing redis is a warning, not a startup failure.
		zlog.Warnw("redis ping failed, cart cache will be degraded", "err", err)
	}
	cartCache := cache.NewRedisCache(redisClient)

	pgPort, err := strconv.Atoi(cfg.PostgresPort)
	if err != nil {
		zlog.Fatalw("invalid postgres port", "port", cfg.PostgresPort, "err", err)
	}
	cred := &repository.Credentials{
		Host:              cfg.PostgresHost,
		Port:              pgPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	orderRepo, err := repository.NewOrderRepository(cred)
	if err != nil {
		zlog.Fatalw("postgres connection failed", "err", err)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(cred); err != nil {
		zlog.Fatalw("order migrations failed", "err", err)
	}

	catalogSvc := service.NewCatalogService(productRepo, zlog)
	cartSvc := service.NewCartService(cartRepo, productRepo, cartCache, zlog)
	orderSvc := service.NewOrderService(orderRepo, productRepo, cartSvc, zlog)

	router := newRouter(cfg, catalogSvc, cartSvc, orderSvc)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Infow("http server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("http server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Errorw("graceful shutdown failed", "err", err)
	}
}

func newRouter(cfg config.Config, catalogSvc service.CatalogService, cartSvc service.CartService, orderSvc service.OrderService) *chi.Mux {
	products := storehttp.NewProductHandler(catalogSvc, cfg.RequestTimeout)
	carts := storehttp.NewCartHandler(cartSvc, cfg.RequestTimeout)
	orders := storehttp.NewOrderHandler(orderSvc, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(cfg.RequestTimeout + 5*time.Second))
	r.Use(storehttp.RequestIDMiddleware)
	r.Use(storehttp.UserIDMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Post("/", products.Create)
			r.Get("/{id}", products.Get)
			r.Put("/{id}", products.Update)
			r.Delete("/{id}", products.Delete)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.Get)
			r.Post("/items", carts.AddItem)
			r.Delete("/items/{productId}", carts.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.List)
			r.Post("/", orders.Create)
			r.Get("/all", orders.ListAll)
			r.Patch("/{id}/status", orders.UpdateStatus)
		})
	})

	return r
}
