package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"claude-nodes/internal/nodes"
	apperrors "claude-nodes/pkg/errors"
)

// NewRouter builds the HTTP surface over a node registry.
func NewRouter(registry *nodes.Registry, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		// List registered nodes
		api.GET("/nodes", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"nodes": registry.Specs()})
		})

		// Get one node spec
		api.GET("/nodes/:name", func(c *gin.Context) {
			node, err := registry.Get(c.Param("name"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
				return
			}
			c.JSON(http.StatusOK, node.Spec())
		})

		// Execute a node
		api.POST("/nodes/:name/execute", func(c *gin.Context) {
			name := c.Param("name")
			ctx := c.Request.Context()

			var req struct {
				Inputs nodes.Inputs `json:"inputs"`
			}

			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if req.Inputs == nil {
				req.Inputs = nodes.Inputs{}
			}

			outputs, err := registry.Run(ctx, name, req.Inputs)
			if err != nil {
				if apperrors.IsErrorType(err, apperrors.ErrorTypeNode) {
					c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
					return
				}
				log.Error("Failed to execute node", zap.String("node", name), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute node"})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"invocation_id": uuid.NewString(),
				"node":          name,
				"outputs":       outputs,
			})
		})
	}

	return router
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
