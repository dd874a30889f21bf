package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/handler/checkoutv1"
	"github.com/rl1809/storefront/internal/adapter/messaging"
	"github.com/rl1809/storefront/internal/adapter/payment"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/metrics"
)

type publisher interface {
	port.EventPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Settlement events
	var events publisher = messaging.NoopPublisher{}
	if brokers := messaging.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		events = messaging.NewKafkaPublisher(brokers, cfg.SettledTopic)
		log.Printf("publishing settlements to kafka topic %s", cfg.SettledTopic)
	} else {
		log.Println("kafka disabled, settlement events are dropped")
	}

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:  cfg.StripeSecretKey,
		APIVersion: cfg.StripeAPIVersion,
	})

	// Initialize services
	checkoutService := service.NewCheckoutService(
		service.NewStockValidator(mysqlAdapter),
		service.NewPricingAggregator(mysqlAdapter),
		service.NewPaymentSessionInitiator(gateway, cfg.Currency),
		service.NewStockSettlement(mysqlAdapter, redisAdapter, events),
		redisAdapter,
	)
	catalogService := service.NewCatalogService(mysqlAdapter, redisAdapter)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(registry, "api")

	handlerCfg := handler.HTTPConfig{
		PublishableKey:      cfg.StripePublishableKey,
		ExposeGatewayErrors: cfg.ExposeGatewayErrors,
		Metrics:             serverMetrics,
	}

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	checkoutv1.RegisterCheckoutServer(grpcServer, handler.NewGRPCHandler(checkoutService, handlerCfg))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(checkoutService, catalogService,
		payment.NewWebhookVerifier(cfg.StripeWebhookSecret), handlerCfg)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handler.NewRouter(httpHandler, handler.RouterConfig{
			RequestTimeout: cfg.RequestTimeout,
			Metrics:        serverMetrics,
			Gatherer:       registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	// Stop gRPC server
	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")

	// Close connections
	if err := events.Close(); err != nil {
		log.Printf("failed to close event publisher: %v", err)
	}
	rdb.Close()
	db.Close()
	log.Println("connections closed")
}
