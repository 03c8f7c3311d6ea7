package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peakform/coaching-app/internal/api"
	"peakform/coaching-app/internal/config"
	"peakform/coaching-app/internal/repository/mongo"
	"peakform/coaching-app/internal/service"
	"peakform/coaching-app/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// ensureIndexes creates the unique and lookup indexes every collection
// relies on.
func ensureIndexes(ctx context.Context, db *mongodriver.Database) error {
	ensurers := []struct {
		collection string
		ensure     func(context.Context, *mongodriver.Collection) error
	}{
		{"users", mongo.EnsureUserIndexes},
		{"exercises", mongo.EnsureExerciseIndexes},
		{"templates", mongo.EnsureTemplateIndexes},
		{"client_templates", mongo.EnsureClientTemplateIndexes},
		{"checkins", mongo.EnsureCheckInIndexes},
		{"uploads", mongo.EnsureUploadIndexes},
	}
	for _, e := range ensurers {
		if err := e.ensure(ctx, db.Collection(e.collection)); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Info("starting coaching app server")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.WithError(err).Fatal("could not load config")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.WithError(err).Fatal("could not connect to MongoDB")
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.WithError(err).Error("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.WithField("database", cfg.Database.Name).Info("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := ensureIndexes(ctx, appDB); err != nil {
			log.WithError(err).Error("index creation failed")
			return
		}
		log.Info("index creation completed")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize S3 storage")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	clientTemplateRepo := mongo.NewMongoClientTemplateRepository(appDB)
	checkInRepo := mongo.NewMongoCheckInRepository(appDB)
	uploadRepo := mongo.NewMongoUploadRepository(appDB)
	transactor := mongo.NewTransactor(dbClient)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	exerciseService := service.NewExerciseService(exerciseRepo)
	coachService := service.NewCoachService(userRepo, templateRepo, clientTemplateRepo, checkInRepo, exerciseRepo, transactor)
	clientService := service.NewClientService(clientTemplateRepo, exerciseRepo)
	checkInService := service.NewCheckInService(checkInRepo, clientTemplateRepo, uploadRepo, fileStorage, transactor)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, coachService, clientService, checkInService, exerciseService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("address", cfg.Server.Address).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen and serve error")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server exiting")
}
