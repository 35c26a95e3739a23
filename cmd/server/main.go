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

	"edis-portal/internal/cache"
	"edis-portal/internal/config"
	"edis-portal/internal/database"
	"edis-portal/internal/handlers"
	"edis-portal/internal/middleware"
	"edis-portal/internal/repository"
	"edis-portal/internal/router"
	"edis-portal/internal/services"
	"edis-portal/internal/websocket"
)

func main() {
	log.Println("🚀 Starting EDIS Portal backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)
	studentRepo := repository.NewStudentRepo(pool)

	// ──── Initialize Services ────
	store := cache.New(redisClients.Cache)
	events := cache.New(redisClients.PubSub)

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.JWTExpiration)
	authService := services.NewAuthService(userRepo, store, jwtAuth)
	jwtAuth.Blacklist = authService
	projectService := services.NewProjectService(projectRepo, store, events, cfg.CacheTTL)
	studentService := services.NewStudentService(studentRepo, projectRepo, store, events, cfg.CacheTTL)

	if cfg.HasAdmin() {
		if err := authService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("✗ Admin bootstrap failed: %v", err)
		}
		log.Printf("✓ Admin user %q ready", cfg.AdminUsername)
	}

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	studentHandler := handlers.NewStudentHandler(studentService)

	// ──── Step 5: Start WebSocket Hub ────
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	go wsHub.Run(ctx)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	authLimiter := router.NewAuthLimiter()
	r := router.New(
		jwtAuth,
		authLimiter,
		authHandler,
		projectHandler,
		studentHandler,
		wsHub.HandleWebSocket,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		stop()
		authLimiter.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("✓ EDIS Portal ready on http://localhost:%s (%s)", cfg.Port, cfg.Env)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
