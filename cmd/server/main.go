package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulseapp/pulse/internal/ai"
	"pulseapp/pulse/internal/api"
	"pulseapp/pulse/internal/config"
	"pulseapp/pulse/internal/repository/mongo"
	"pulseapp/pulse/internal/service"
	"pulseapp/pulse/internal/session"
	"pulseapp/pulse/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Pulse Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	location, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		log.Fatalf("FATAL: Invalid server.timezone %q: %v", cfg.Server.Timezone, err)
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureRoutineIndexes(ctx, appDB.Collection("routines"))
		mongo.EnsureWorkoutIndexes(ctx, appDB.Collection("workouts"))
		mongo.EnsureWorkoutSetIndexes(ctx, appDB.Collection("workout_sets"))
		mongo.EnsureBadgeIndexes(ctx, appDB.Collection("badges"), appDB.Collection("user_badges"))
		mongo.EnsureStreakIndexes(ctx, appDB.Collection("streaks"))
		mongo.EnsureWorkoutPlanIndexes(ctx, appDB.Collection("workout_plans"))
		mongo.EnsureExerciseLibraryIndexes(ctx, appDB.Collection("exercise_library"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	routineRepo := mongo.NewMongoRoutineRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	setRepo := mongo.NewMongoWorkoutSetRepository(appDB)
	badgeRepo := mongo.NewMongoBadgeRepository(appDB)
	streakRepo := mongo.NewMongoStreakRepository(appDB)
	planRepo := mongo.NewMongoWorkoutPlanRepository(appDB)
	libraryRepo := mongo.NewMongoExerciseLibraryRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	tracker := session.NewTracker()
	defer tracker.Stop()

	orchestrator := ai.NewClient(cfg.AI.BaseURL, cfg.AI.Timeout)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	badgeService := service.NewBadgeService(badgeRepo, streakRepo, workoutRepo, setRepo, location)
	workoutService := service.NewWorkoutService(workoutRepo, setRepo, routineRepo, tracker, badgeService)
	routineService := service.NewRoutineService(routineRepo)
	analyticsService := service.NewAnalyticsService(workoutRepo, setRepo, location)
	transferService := service.NewTransferService(workoutRepo, setRepo, fileStorage)
	accountService := service.NewAccountService(userRepo, routineRepo, workoutRepo, setRepo, badgeRepo, streakRepo, planRepo)
	planService := service.NewPlanService(orchestrator, userRepo, libraryRepo, workoutRepo, setRepo, planRepo)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(
		router,
		cfg.JWT.Secret,
		authService,
		workoutService,
		routineService,
		analyticsService,
		badgeService,
		transferService,
		accountService,
		planService,
	)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // CSV exports can be slow on large histories
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
