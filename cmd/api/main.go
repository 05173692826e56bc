// server/cmd/api/main.go
package main

import (
	"context"
	"log"
	"time"

	"pipeyard-storage-api-server/config"
	"pipeyard-storage-api-server/internal/api/routes"
	"pipeyard-storage-api-server/internal/auth"
	"pipeyard-storage-api-server/internal/database"
	"pipeyard-storage-api-server/internal/engine"
	"pipeyard-storage-api-server/internal/notify"
	"pipeyard-storage-api-server/internal/s3"
	"pipeyard-storage-api-server/internal/socket"

	"github.com/joho/godotenv"
)

func main() {
	// .env chỉ dùng cho môi trường dev; production đặt biến môi trường trực tiếp.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	auth.Configure(cfg.JWT.Secret, cfg.JWT.Expiration)
	logger := config.GetLogger()

	// 2. Kết nối MongoDB và chuẩn bị index/constraint cho engine
	client, db, err := database.Connect(cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancel()

	if err := database.SeedAdmin(db); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// 3. Khởi tạo các thành phần phụ trợ
	wsHub := socket.NewHub()

	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3 uploader: %v", err)
	}

	// 4. Engine transaction + queue worker
	txnEngine := &engine.Engine{Client: client, DB: db, Logger: logger}

	dispatcher := notify.NewDispatcher(cfg.Notify.WebhookURL, wsHub)
	worker := engine.NewWorker(txnEngine, dispatcher)
	if cfg.Notify.DrainInterval != "" {
		if d, err := time.ParseDuration(cfg.Notify.DrainInterval); err == nil {
			worker.Interval = d
		}
	}
	if cfg.Notify.MaxAttempts > 0 {
		worker.MaxAttempts = cfg.Notify.MaxAttempts
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	// 5. Truyền tất cả các thành phần cần thiết vào router
	router := routes.SetupRouter(db, txnEngine, worker, s3Uploader, wsHub)

	// 6. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
