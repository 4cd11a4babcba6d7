package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/cache"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/cart"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/catalog"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/chat"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/config"
	h "github.com/dangmquann/Sanryoo-Shop-sub000/internal/http"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/lifecycle"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/notifier"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/publisher"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/storage"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	cfg := config.Load(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := repository.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoMaxPool, cfg.MongoMinPool)
	connectCancel()
	if err != nil {
		log.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Warn("failed to disconnect from mongodb", zap.Error(err))
		}
	}()

	store := repository.NewStore(db)
	if err := store.CreateIndexes(ctx); err != nil {
		log.Fatal("failed to create indexes", zap.Error(err))
	}

	blobs, err := storage.NewGridFSStore(db)
	if err != nil {
		log.Fatal("failed to create blob store", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	cartService := cart.NewService(store.Orders, store.Products, cartCache, log)
	lifecycleService := lifecycle.NewService(store.Orders, store.Products, store.Users, store.Outbox, store, log)
	catalogService := catalog.NewService(store.Products, store.Categories, store.Likes, blobs, log)
	chatService := chat.NewService(store.Messages, store.Users, blobs)

	// outbox -> kafka -> notifications pipeline
	poller := publisher.NewOutboxPoller(store.Outbox, log, cfg.KafkaBrokers...)
	go poller.Run(ctx)
	defer poller.Close()

	relay := notifier.NewHTTPRelay(cfg.PushRelayURL)
	consumer := notifier.NewConsumer(store.Notifications, store.Tokens, relay, log, cfg.KafkaBrokers...)
	go consumer.Run(ctx)
	defer consumer.Close()

	router := h.NewRouter(h.RouterDeps{
		Cart:           h.NewCartHandler(cartService),
		Orders:         h.NewOrderHandler(lifecycleService, store.Orders),
		Live:           h.NewLiveHandler(store.Orders, log),
		Products:       h.NewProductHandler(catalogService),
		Chat:           h.NewChatHandler(chatService),
		Notifications:  h.NewNotificationHandler(store.Notifications, store.Tokens),
		Blobs:          h.NewBlobHandler(blobs, log),
		Users:          store.Users,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	cancel() // stop the poller, consumer and change streams

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
