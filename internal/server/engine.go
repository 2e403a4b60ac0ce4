package server

import (
	"log/slog"
	"net/http"

	"github.com/tally-app/tally/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redocMiddleware "github.com/go-openapi/runtime/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// GetEngine creates a Gin engine with the middlewares every route needs. Routes are registered by
// the packages owning them.
func GetEngine(logger *slog.Logger, serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("authorization")
	corsConfig.AddExposeHeaders("X-Correlation-ID")
	r.Use(cors.New(corsConfig))

	r.Use(middleware.CorrelationID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorHandler())

	r.GET("/health", Health)

	return r
}

// Health reports the service as healthy as long as it responds
func Health(c *gin.Context) {
	// swagger:route GET /health health
	//
	// Health status
	//
	// Show service health status
	//
	// Responses:
	//   200: Health
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}

// Docs serves the swagger document and its rendering using Redoc. The document is read from
// ./swagger/swagger.yaml relative to the working directory.
func Docs(router gin.IRouter, basePath string) {
	router.StaticFile("/swagger.yaml", "./swagger/swagger.yaml")

	redocOpts := redocMiddleware.RedocOpts{
		BasePath: basePath,
		SpecURL:  "./swagger.yaml",
	}
	router.GET("/docs", func(c *gin.Context) {
		redocHandler := redocMiddleware.Redoc(redocOpts, nil)
		redocHandler.ServeHTTP(c.Writer, c.Request)
	})
}
