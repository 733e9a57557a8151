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

	"alcyxob/fitness-tracker/internal/api"
	"alcyxob/fitness-tracker/internal/cloudsync"
	"alcyxob/fitness-tracker/internal/config"
	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/localstore"
	"alcyxob/fitness-tracker/internal/notify"
	"alcyxob/fitness-tracker/internal/repository"
	firestorerepo "alcyxob/fitness-tracker/internal/repository/firestore"
	"alcyxob/fitness-tracker/internal/repository/memory"
	"alcyxob/fitness-tracker/internal/repository/mongo"
	"alcyxob/fitness-tracker/internal/service"
	"alcyxob/fitness-tracker/internal/state"
	"alcyxob/fitness-tracker/internal/storage"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
)

// notificationHistory is how many notifications a new websocket client gets replayed.
const notificationHistory = 20

func main() {
	log.Println("Starting Fitness Tracker Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatalf("FATAL: jwt.secret must be set (JWT_SECRET)")
	}
	log.Println("Configuration loaded.")

	// --- Local Storage ---
	slot, err := localstore.OpenSQLiteSlot(cfg.Local.Path)
	if err != nil {
		log.Fatalf("FATAL: Could not open local storage at %s: %v", cfg.Local.Path, err)
	}
	defer func() {
		if err := slot.Close(); err != nil {
			log.Printf("ERROR: Failed to close local storage: %v", err)
		}
	}()
	log.Printf("Local storage opened at %s", cfg.Local.Path)

	// --- Remote Document Store ---
	docs, closeRemote, err := openDocumentStore(cfg.Remote)
	if err != nil {
		log.Fatalf("FATAL: Could not open %s document store: %v", cfg.Remote.Backend, err)
	}
	defer closeRemote()

	// --- Export Storage ---
	exports := service.ExportOptions{Prefix: cfg.Backup.Prefix, URLExpiry: cfg.Backup.URLExpiry}
	if cfg.S3.Enabled() {
		log.Println("Initializing export storage...")
		exports.Storage, err = storage.NewS3Storage(cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("WARN: S3 bucket not configured, export uploads disabled")
	}

	// --- State, Sync and Session ---
	hub := notify.NewHub(notificationHistory)
	defer hub.Close()

	st := state.New(domain.Snapshot{})
	st.OnChange(hub.StateChanged)

	remote := cloudsync.NewRemote(docs)
	orchestrator := cloudsync.NewOrchestrator(remote, st, hub)
	tokens := identity.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiration)
	session := identity.NewSession(tokens)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	trackerService := service.NewTrackerService(st, localstore.NewStore(slot), remote, orchestrator, session, hub, exports)
	accountService := service.NewAccountService(repository.NewAccountRepository(docs), tokens)

	// The orchestrator must see sign-out before the tracker reloads local data.
	session.AddListener(orchestrator)
	session.AddListener(trackerService)

	if _, err := trackerService.Init(); err != nil {
		log.Fatalf("FATAL: Could not load local data: %v", err)
	}

	// --- Initialize Gin Engine ---
	router := gin.Default()

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, session, accountService, trackerService, hub)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}
	// Ends live subscriptions before the remote client goes away.
	session.SignOut()

	log.Println("Server exiting.")
}

// openDocumentStore connects the configured backend. The returned func releases it.
func openDocumentStore(cfg config.RemoteConfig) (repository.DocumentStore, func(), error) {
	switch cfg.Backend {
	case config.BackendMongo:
		client, err := mongo.ConnectDB(cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.Mongo.Name)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			mongo.EnsureIndexes(ctx, db)
		}()
		log.Println("Database connection established.")
		return mongo.NewMongoDocumentStore(db), func() {
			log.Println("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(client); err != nil {
				log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
			}
		}, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(context.Background(), cfg.Firestore.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Firestore client created for project %s", cfg.Firestore.ProjectID)
		return firestorerepo.NewFirestoreDocumentStore(client), func() {
			if err := client.Close(); err != nil {
				log.Printf("ERROR: Failed to close Firestore client: %v", err)
			}
		}, nil

	default:
		log.Println("WARN: Using in-memory document store, cloud data is lost on restart")
		return memory.NewDocumentStore(), func() {}, nil
	}
}
