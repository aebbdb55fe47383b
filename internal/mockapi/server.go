package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"offsetmarket-buyer-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is a self-contained stand-in for the marketplace backend: buyer
// registration and login, needs submission, transaction listing, payment
// completion with certificate generation, and certificate file serving.
type Server struct {
	cfg     models.MockServerConfig
	storage *Storage
	zones   []Zone
	tokens  *TokenIssuer
	engine  *gin.Engine
}

func NewServer(cfg models.MockServerConfig, storage *Storage) (*Server, error) {
	if storage == nil {
		return nil, fmt.Errorf("server requires storage")
	}

	zones, err := LoadZones(cfg.ZonesFile)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Conservation zone catalog loaded",
		zap.String("file", cfg.ZonesFile),
		zap.Int("zones", len(zones)))

	tokens, err := NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	server := &Server{
		cfg:     cfg,
		storage: storage,
		zones:   zones,
		tokens:  tokens,
	}
	server.engine = server.buildRouter()
	return server, nil
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)
	}

	buyer := router.Group("/api/buyer", s.requireBuyer())
	{
		buyer.POST("/transactions", s.handleSubmitNeeds)
		buyer.GET("/transactions/list", s.handleListTransactions)
		buyer.GET("/transactions/:id/proceed-payment", s.handleProceedPayment)
	}

	router.GET("/api/zones", s.handleListZones)

	router.Static("/certificates", filepath.Join(s.cfg.StorageDir, "certificates"))

	return router
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		zap.L().Info("Mock marketplace listening", zap.String("addr", s.cfg.ListenAddr))
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
