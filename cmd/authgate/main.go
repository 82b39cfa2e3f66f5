// Command authgate runs the authentication service: signup, login, session
// verification, and logout over a flat key-value user store.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/authgate/internal/auth"
	"github.com/skillsenselab/authgate/internal/config"
	"github.com/skillsenselab/authgate/internal/fieldcrypt"
	"github.com/skillsenselab/authgate/internal/logger"
	"github.com/skillsenselab/authgate/internal/password"
	"github.com/skillsenselab/authgate/internal/server"
	"github.com/skillsenselab/authgate/internal/session"
	"github.com/skillsenselab/authgate/internal/store"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml (optional)")
	envFile := flag.String("env", "", "path to .env file (optional)")
	flag.Parse()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigFile: *configFile,
		EnvFile:    *envFile,
	})
	if err != nil {
		logger.Fatal("Failed to load configuration", logger.ErrorFields("load", err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", logger.ErrorFields("validate", err))
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("Starting service", logger.Fields(
		"name", cfg.Name,
		"environment", cfg.Environment,
	))

	// Process-wide secrets: the derived field-encryption key and the token
	// signing key are constructed once and injected, never global.
	cipher, err := fieldcrypt.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize field cipher", logger.ErrorFields("fieldcrypt", err))
	}
	codec, err := session.NewCodec(cfg.Session)
	if err != nil {
		log.Fatal("Failed to initialize session codec", logger.ErrorFields("session", err))
	}
	hasher := password.NewHasher(cfg.Password)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userStore, err := store.NewRedisStore(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("Failed to connect to user store", logger.ErrorFields("store", err))
	}
	defer userStore.Close()

	svc := auth.NewService(userStore, hasher, cipher, codec, log)
	handler := auth.NewHandler(svc, auth.CookieConfig{
		MaxAge: cfg.Session.TTL,
		Secure: cfg.IsProduction(),
	})

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	handler.RegisterRoutes(srv.GinEngine())
	registerHealth(srv.GinEngine(), cfg.Name, userStore)

	if err := srv.Start(ctx); err != nil {
		log.Fatal("Failed to start server", logger.ErrorFields("server", err))
	}

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		os.Exit(1)
	}
}

// registerHealth mounts the root probe reporting service and store status.
func registerHealth(r *gin.Engine, serviceName string, userStore *store.RedisStore) {
	r.GET("/", func(c *gin.Context) {
		status := "healthy"
		if err := userStore.Ping(c.Request.Context()); err != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "Authentication API is running",
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}
