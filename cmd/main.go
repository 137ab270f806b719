package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"moodchat/backend/internal/api/handler"
	"moodchat/backend/internal/chathub"
	"moodchat/backend/internal/config"
	"moodchat/backend/internal/models"
	"moodchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *mongo.Database, *redis.Client) {
	// 1. PostgreSQL: users and rooms
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ChatRoom{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// 2. MongoDB: message log
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		log.Fatalf("Failed to connect MongoDB: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	mdb := mongoClient.Database("moodchat")

	// 3. Redis: ephemeral search-state mirror
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Database connections established, migrations complete.")
	return db, mdb, rdb
}

func main() {
	log.Println("Starting MoodChat Backend...")

	cfg := config.Load()
	db, mdb, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, mdb, rdb)

	hub := chathub.NewHub(s)
	hub.RecoverSearchPool()
	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(hub, s, cfg.JWTSecret)

	r.GET("/auth/anonid", h.GetAnonID)
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	server := &http.Server{
		Addr:           cfg.Addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
