// Package httpapi exposes the filedrop services over REST. It is a thin
// layer: it resolves the authenticated user, parses payloads, and maps
// sentinel errors to status codes; all file semantics live in the files
// package.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/filedrop/filedrop/internal/logging"
	"github.com/filedrop/filedrop/internal/server/config"
	"github.com/filedrop/filedrop/internal/server/files"
	"github.com/filedrop/filedrop/internal/server/users"
	"github.com/gin-gonic/gin"
)

type Server struct {
	address       string
	engine        *gin.Engine
	logger        logging.Logger
	users         *users.Service
	files         *files.Service
	corsOrigin    string
	maxUploadSize int64
}

func NewServer(cfg *config.Config, l logging.Logger, us *users.Service, fs *files.Service) *Server {
	s := &Server{
		address:       cfg.EndpointAddr,
		logger:        l.With("module", "http_server"),
		users:         us,
		files:         fs,
		corsOrigin:    cfg.CORSAllowedOrigin,
		maxUploadSize: cfg.MaxUploadSizeBytes,
	}
	s.engine = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.corsMiddleware())

	r.POST("/auth/login", s.handleLogin)

	authed := r.Group("/files", s.authMiddleware())
	authed.POST("/upload", s.handleUpload)
	authed.POST("/upload-url", s.handleUploadURL)
	authed.POST("/:id/complete-upload", s.handleCompleteUpload)
	authed.GET("", s.handleList)
	authed.GET("/:id/download-url", s.handleDownloadURL)
	authed.DELETE("/:id", s.handleDelete)

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.engine,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		_ = srv.Shutdown(context.Background())
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
