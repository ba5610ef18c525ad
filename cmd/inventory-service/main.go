package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/microshop/microshop/internal/cache"
	"github.com/microshop/microshop/internal/config"
	"github.com/microshop/microshop/internal/db"
	"github.com/microshop/microshop/internal/discovery"
	"github.com/microshop/microshop/internal/handlers"
	"github.com/microshop/microshop/internal/inventory"
	"github.com/microshop/microshop/internal/logging"
)

const (
	serviceName = "inventory-service"
	serviceID   = "inventory-service-1"
)

func main() {
	cfg := config.Load()
	logger := logging.New(serviceName)

	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	redisCache, err := cache.NewRedisCache(cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Fatalf("Failed to connect to Consul: %v", err)
	}

	err = consul.Register(discovery.ServiceConfig{
		Name: serviceName,
		ID:   serviceID,
		Port: portFromAddr(cfg.HTTPAddr),
		Tags: []string{"api", "inventory"},
	})
	if err != nil {
		log.Fatalf("Failed to register service: %v", err)
	}

	// Deregister on shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		consul.Deregister(serviceID)
		os.Exit(0)
	}()

	productRepo := db.NewProductRepository(database)
	cachedRepo := db.NewCachedProductRepository(productRepo, redisCache, logger)
	inventoryService := inventory.NewService(cachedRepo, logger)
	productHandler := handlers.NewProductHandler(inventoryService, logger)

	router := gin.Default()
	router.GET("/health", productHandler.HealthCheck)
	productHandler.Register(router)

	log.Printf("🚀 Inventory Service starting on %s", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func portFromAddr(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 8081
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 8081
	}
	return port
}
