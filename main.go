package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	sessredis "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gms_backend/pkg/audit"
	"gms_backend/pkg/config"
	"gms_backend/pkg/controllers/admin"
	"gms_backend/pkg/controllers/auth"
	"gms_backend/pkg/controllers/inventory"
	"gms_backend/pkg/controllers/mobileapi"
	"gms_backend/pkg/database"
	"gms_backend/pkg/importer"
	"gms_backend/pkg/ledger"
	"gms_backend/pkg/routes"
	"gms_backend/pkg/session"
)

func main() {
	config.LoadConfig()

	db, err := database.Open()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if config.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to redis")
	}
	defer rdb.Close()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.Default()
	router.Use(gin.Recovery())

	// Server-side session store in redis; the cookie only carries the key
	store, err := sessredis.NewStore(10, "tcp", config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, []byte(config.AppConfig.SessionSecret))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize session store")
	}
	router.Use(sessions.Sessions(session.CookieName, store))

	setupCORS(router)

	router.MaxMultipartMemory = 10 << 20 // 10 MB

	setupRoutes(router, db, rdb)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.Port,
		Handler: router,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"environment": config.AppConfig.Environment,
			"port":        config.AppConfig.Port,
		}).Info("Server listening")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server exited gracefully")
}

// setupCORS configures CORS middleware
func setupCORS(router *gin.Engine) {
	defaultOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if config.IsProduction() {
		if config.AppConfig.AllowedOrigins != "" {
			corsConfig.AllowOrigins = parseOrigins(config.AppConfig.AllowedOrigins)
		} else {
			corsConfig.AllowOrigins = defaultOrigins
		}
		logrus.WithField("origins", corsConfig.AllowOrigins).Info("CORS enabled")
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool {
			return true
		}
		logrus.Info("CORS enabled for all origins (development mode)")
	}

	router.Use(cors.New(corsConfig))
}

// parseOrigins splits a comma-separated origin string
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// setupRoutes wires controllers and registers all application routes
func setupRoutes(router *gin.Engine, db *gorm.DB, rdb *goredis.Client) {
	recorder := audit.NewRecorder(db)
	sessionSvc := session.NewService(config.AppConfig.SessionInactivityMinutes)
	ledgerSvc := ledger.NewService(db)
	imp := importer.New(config.AppConfig.UploadRoot)

	authCtl := auth.NewController(db, sessionSvc, recorder)
	inventoryCtl := inventory.NewController(db, ledgerSvc, imp, recorder)
	adminCtl := admin.NewController(db, sessionSvc, recorder)
	mobileCtl := mobileapi.NewController(db, rdb, recorder)

	guard := sessionSvc.Guard()

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "GMS Backend Server is running...")
	})

	api := router.Group("/api")
	{
		routes.RegisterAuthRoutes(api, authCtl, guard)
		routes.RegisterInventoryRoutes(api, inventoryCtl, recorder, guard)
		routes.RegisterAdminRoutes(api, adminCtl, recorder, guard)
		routes.RegisterMobileRoutes(api, mobileCtl)

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":      "ok",
				"environment": config.AppConfig.Environment,
				"database":    "connected",
			})
		})
	}
}
