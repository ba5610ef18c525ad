package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/microshop/microshop/internal/client"
	"github.com/microshop/microshop/internal/config"
	"github.com/microshop/microshop/internal/db"
	"github.com/microshop/microshop/internal/discovery"
	"github.com/microshop/microshop/internal/handlers"
	"github.com/microshop/microshop/internal/logging"
	"github.com/microshop/microshop/internal/messaging"
	"github.com/microshop/microshop/internal/orders"
	"github.com/microshop/microshop/internal/publisher"
)

func main() {
	cfg := config.Load()
	logger := logging.New("order-service")

	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitUser, cfg.RabbitPassword)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Close()

	orderPublisher, err := publisher.NewOrderPublisher(rabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	// Resolve the inventory service through Consul when available, fall
	// back to the configured URL otherwise.
	inventoryURL := cfg.InventoryURL
	if consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort); err != nil {
		log.Printf("⚠️ Consul unavailable, using configured inventory URL: %v", err)
	} else if url, err := consul.GetServiceURL("inventory-service"); err != nil {
		log.Printf("⚠️ inventory-service not in Consul, using configured URL: %v", err)
	} else {
		inventoryURL = url
	}

	inventoryClient := client.NewInventoryClient(inventoryURL, cfg.InventoryTimeout)

	orderRepo := db.NewOrderRepository(database)
	orderService := orders.NewService(orderRepo, inventoryClient, orderPublisher, logger)
	orderHandler := handlers.NewOrderHandler(orderService, logger)

	router := gin.Default()
	router.GET("/health", orderHandler.HealthCheck)
	orderHandler.Register(router)

	log.Printf("🚀 Order Service starting on %s", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
