package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sweetshop-backend/config"
	"sweetshop-backend/internal/api"
	"sweetshop-backend/internal/broker"
	"sweetshop-backend/internal/delivery"
	"sweetshop-backend/internal/gateway"
	"sweetshop-backend/internal/notify"
	"sweetshop-backend/internal/redisclient"
	"sweetshop-backend/internal/service"
	"sweetshop-backend/internal/store"
	"sweetshop-backend/internal/util"
	"sweetshop-backend/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting sweetshop backend")

	tp, err := util.InitTracer("sweetshop-backend", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer, db)

	zones, err := delivery.LoadZones(cfg.Business.ZonesFile)
	if err != nil {
		log.Fatalf("Failed to load delivery zones: %v", err)
	}
	resolver, err := delivery.NewResolver(zones)
	if err != nil {
		log.Fatalf("Failed to build delivery resolver: %v", err)
	}
	log.Printf("Delivery zones loaded: %d zones", len(zones))

	razorpay := gateway.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.BaseURL)

	var mailer notify.Mailer
	if cfg.Notify.EmailEndpoint != "" {
		mailer = notify.NewEmailClient(cfg.Notify.EmailEndpoint, cfg.Notify.EmailAPIKey)
	}
	var texter notify.Texter
	if cfg.Notify.SMSEndpoint != "" {
		texter = notify.NewSMSClient(cfg.Notify.SMSEndpoint, cfg.Notify.SMSAPIKey, cfg.Notify.SenderID)
	}
	dispatcher := notify.NewDispatcher(mailer, texter)

	orderService := service.NewOrderService(db, resolver, dispatcher, eventPublisher, redisClient)
	paymentService := service.NewPaymentService(db, razorpay, dispatcher, eventPublisher, redisClient,
		time.Duration(cfg.Business.SettleLockTTL)*time.Second)
	statusService := service.NewStatusService(db, dispatcher, eventPublisher, nil, cfg.Business.AllowRegressions)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notifyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notifyWorker := worker.NewNotificationWorker(notifyConsumer, dispatcher, db)
	go func() {
		if err := notifyWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, paymentService, statusService, resolver)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if err := notifyWorker.Stop(); err != nil {
		log.Printf("Error stopping notification worker: %v", err)
	}
	dispatcher.Wait()

	log.Println("Server exited")
}
