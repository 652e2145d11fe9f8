package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/skyhook-org/dronelog/internal/config"
	"github.com/skyhook-org/dronelog/internal/database"
	"github.com/skyhook-org/dronelog/internal/services"
)

// Services bundles the domain services the HTTP layer fronts.
type Services struct {
	Pilots      *services.PilotService
	Drones      *services.DroneService
	Locations   *services.LocationService
	Events      *services.EventService
	Flights     *services.FlightService
	Documents   *services.DocumentService
	Dashboard   *services.DashboardService
	Idempotency *services.IdempotencyService
}

type Server struct {
	router      *gin.Engine
	config      *config.Config
	db          *database.Database
	authService *AuthService
	services    Services
	migrations  *database.MigrationRunner
	logger      zerolog.Logger
	httpServer  *http.Server
}

func NewServer(cfg *config.Config, db *database.Database, svcs Services, migrations *database.MigrationRunner, logger zerolog.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(metricsMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.HTTP.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.AllowOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:3000", "http://127.0.0.1:5173"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Requested-With"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Type", "Content-Disposition", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		authService: NewAuthService(db, cfg.Auth, logger),
		services:    svcs,
		migrations:  migrations,
		logger:      logger,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", s.loginHandler)
			auth.POST("/logout", s.logoutHandler)
		}

		protected := v1.Group("")
		protected.Use(s.authMiddleware())
		{
			protected.GET("/auth/me", s.meHandler)

			pilots := protected.Group("/pilots")
			{
				pilots.GET("", s.listPilotsHandler)
				pilots.POST("", s.createPilotHandler)
				pilots.GET("/:id", s.getPilotHandler)
				pilots.PUT("/:id", s.updatePilotHandler)
				pilots.DELETE("/:id", s.deletePilotHandler)
				pilots.GET("/:id/flights", s.pilotFlightsHandler)
			}

			drones := protected.Group("/drones")
			{
				drones.GET("", s.listDronesHandler)
				drones.POST("", s.createDroneHandler)
				drones.GET("/:id", s.getDroneHandler)
				drones.PUT("/:id", s.updateDroneHandler)
				drones.DELETE("/:id", s.deleteDroneHandler)
				drones.GET("/:id/qrcode", s.droneQRCodeHandler)
			}

			locations := protected.Group("/locations")
			{
				locations.GET("", s.listLocationsHandler)
				locations.POST("", s.createLocationHandler)
				locations.GET("/:id", s.getLocationHandler)
				locations.PUT("/:id", s.updateLocationHandler)
				locations.DELETE("/:id", s.deleteLocationHandler)
			}

			events := protected.Group("/events")
			{
				events.GET("", s.listEventsHandler)
				events.POST("", s.createEventHandler)
				events.GET("/:id", s.getEventHandler)
				events.PUT("/:id", s.updateEventHandler)
				events.DELETE("/:id", s.deleteEventHandler)
				events.POST("/:id/pilots/:pilotID", s.assignPilotHandler)
				events.DELETE("/:id/pilots/:pilotID", s.unassignPilotHandler)
			}

			flights := protected.Group("/flights")
			{
				flights.GET("", s.listFlightsHandler)
				flights.GET("/:id", s.getFlightHandler)
				// Start and end are guarded against double-submits from flaky
				// field connections.
				flights.POST("", s.idempotencyMiddleware(), s.startFlightHandler)
				flights.POST("/:id/end", s.idempotencyMiddleware(), s.endFlightHandler)
			}

			protected.GET("/dashboard", s.dashboardHandler)
			protected.GET("/dashboard/:pilotID", s.dashboardEntryHandler)

			documents := protected.Group("/documents")
			{
				documents.GET("", s.listDocumentsHandler)
				documents.POST("", s.uploadDocumentHandler)
				documents.GET("/:id", s.getDocumentHandler)
				documents.GET("/:id/download", s.downloadDocumentHandler)
				documents.DELETE("/:id", s.deleteDocumentHandler)
			}

			admin := protected.Group("/admin")
			admin.Use(s.adminMiddleware())
			{
				admin.POST("/users", s.createUserHandler)
				admin.GET("/migrations", s.listMigrationsHandler)
				admin.POST("/migrations/:name/run", s.runMigrationHandler)
				admin.DELETE("/flights/:id", s.deleteFlightHandler)
			}
		}
	}
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func LoggerMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		if raw != "" {
			path = path + "?" + raw
		}

		logger.Info().
			Str("client_ip", clientIP).
			Str("method", method).
			Str("path", path).
			Int("status", statusCode).
			Dur("latency", latency).
			Str("error", errorMessage).
			Msg("HTTP request")
	}
}

// @title Dronelog API
// @version 1.0
// @description Flight logbook for drone units: pilots, drones, flights and currency tracking

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// healthHandler godoc
// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (s *Server) healthHandler(c *gin.Context) {
	ctx := c.Request.Context()

	dbHealthy := true
	var dbError string
	if err := s.db.Health(ctx); err != nil {
		dbHealthy = false
		dbError = err.Error()
	}

	status := "healthy"
	if !dbHealthy {
		status = "unhealthy"
	}

	response := gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"database": gin.H{
			"healthy": dbHealthy,
			"error":   dbError,
		},
	}

	if !dbHealthy {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
