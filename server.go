package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/membership_backend/config"
	"github.com/mmdatafocus/membership_backend/middlewares"
	"github.com/mmdatafocus/membership_backend/models"
	"github.com/sirupsen/logrus"
)

var allRoles = []models.UserRole{
	models.UserRoleAdmin,
	models.UserRoleFinance,
	models.UserRoleManagement,
	models.UserRoleViewer,
}

func newRouter() *gin.Engine {
	logger := config.GetLogger()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on database readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS
	// (comma-separated). Outside production, allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "X-User-Id", "X-User-Role")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.IdentityMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.POST("/invoices/upload",
			middlewares.RequireRoles(models.UserRoleAdmin, models.UserRoleFinance),
			uploadInvoicesHandler())
		api.GET("/invoices",
			middlewares.RequireRoles(allRoles...),
			listInvoicesHandler())

		api.GET("/members",
			middlewares.RequireRoles(allRoles...),
			listMembersHandler())
		api.PUT("/members/:id",
			middlewares.RequireRoles(models.UserRoleAdmin, models.UserRoleFinance),
			updateMemberHandler())

		api.GET("/uploads",
			middlewares.RequireRoles(models.UserRoleAdmin, models.UserRoleFinance),
			listUploadsHandler())
		api.DELETE("/uploads/:id",
			middlewares.RequireRoles(models.UserRoleAdmin),
			deleteUploadHandler())

		api.GET("/reports/accrual",
			middlewares.RequireRoles(allRoles...),
			accrualReportHandler())
		api.GET("/reports",
			middlewares.RequireRoles(allRoles...),
			reportsHandler())

		api.GET("/forecast",
			middlewares.RequireRoles(models.UserRoleAdmin, models.UserRoleManagement),
			forecastHandler())
	}

	r.NoRoute(customNotFoundHandler)
	return r
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
