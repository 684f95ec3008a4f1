package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/task-tracker/internal/config"
	"github.com/yukikurage/task-tracker/internal/constants"
	"github.com/yukikurage/task-tracker/internal/database"
	"github.com/yukikurage/task-tracker/internal/handlers"
	"github.com/yukikurage/task-tracker/internal/repository"
	"github.com/yukikurage/task-tracker/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Open the key-value backend
	operations := map[string]gfshutdown.Operation{}
	kv, err := openStore(cfg, operations)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}

	// Restore persisted tasks
	store := services.NewTaskStore(kv)
	if err := store.Load(context.Background()); err != nil {
		log.Fatalf("Failed to load tasks: %v", err)
	}
	clock := services.SystemClock{Location: cfg.Location()}

	// Flag overdue tasks now and on every tick
	sweeper, err := services.NewSweeper(store, clock, cfg.SweepSchedule)
	if err != nil {
		log.Fatalf("Failed to create sweeper: %v", err)
	}
	sweeper.Start()
	operations["sweeper"] = sweeper.Stop

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}

	taskHandler := handlers.NewTaskHandler(store, clock, clock.Location)
	r := handlers.NewRouter(store, taskHandler, sessionStore)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	operations["http-server"] = srv.Shutdown

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, operations)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// openStore returns the KVStore selected by cfg.StoreDriver and registers
// its cleanup in operations.
func openStore(cfg *config.Config, operations map[string]gfshutdown.Operation) (repository.KVStore, error) {
	switch cfg.StoreDriver {
	case constants.StoreDriverMemory:
		log.Println("Warning: using in-memory store, tasks will not survive a restart")
		return repository.NewMemoryKVStore(), nil

	case constants.StoreDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, err
		}
		log.Printf("Redis connected at %s:%s", cfg.RedisHost, cfg.RedisPort)
		operations["redis"] = func(context.Context) error {
			return client.Close()
		}
		return repository.NewRedisKVStore(client, cfg.StoreKeyPrefix), nil

	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			database.Close(db)
			return nil, err
		}
		operations["database"] = func(context.Context) error {
			return database.Close(db)
		}
		return repository.NewGormKVStore(db), nil
	}
}

// newSessionStore keeps sessions next to the tasks in Redis when that
// backend is selected, and in signed cookies otherwise.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	isProduction := cfg.GinMode == gin.ReleaseMode
	if cfg.StoreDriver != constants.StoreDriverRedis {
		return handlers.NewCookieSessionStore(cfg.SessionSecret, isProduction), nil
	}

	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, err
	}
	store.Options(handlers.SessionOptions(isProduction))
	return store, nil
}
