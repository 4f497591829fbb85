// Package web serves the browser interface: clone a repository, choose files and
// excluded extensions, watch the totals change and combine the selection.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/ctxrepo/internal/session"
	"github.com/temirov/ctxrepo/internal/utils"
)

const (
	// DefaultAddress is the listen address used when Config.Address is empty.
	DefaultAddress = "127.0.0.1:5001"
	// DefaultShutdownTimeout bounds graceful shutdown when Config.ShutdownTimeout is unset.
	DefaultShutdownTimeout = 5 * time.Second
)

const (
	headerContentType = "Content-Type"
	mimeTypeHTML      = "text/html; charset=utf-8"
	mimeTypeJSON      = "application/json"
	errorFieldName    = "error"

	routeIndex        = "GET /{$}"
	routeClone        = "POST /clone"
	routeUpdateTotals = "POST /update-totals"
	routeSelectAll    = "POST /select-all"
	routeUnselectAll  = "POST /unselect-all"
	routeCombine      = "POST /combine"
	routeDelete       = "POST /delete"

	indexPath = "/"

	logRequestHandled = "request handled"
	logRequestFailed  = "request failed"
	logServerListen   = "serving web interface"
)

// Config defines runtime options for the web server.
type Config struct {
	Address         string
	ShutdownTimeout time.Duration
}

// Server renders repository pages for the session held by its Manager.
type Server struct {
	config  Config
	manager *session.Manager
	logger  *zap.Logger
}

// NewServer creates a Server with defaults applied.
func NewServer(config Config, manager *session.Manager, logger *zap.Logger) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = DefaultAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = DefaultShutdownTimeout
	}
	return Server{config: normalized, manager: manager, logger: utils.LoggerOrNop(logger)}
}

// Handler returns the routed HTTP handler of the interface.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(routeIndex, server.handleIndex)
	router.HandleFunc(routeClone, server.handleClone)
	router.HandleFunc(routeUpdateTotals, server.handleUpdateTotals)
	router.HandleFunc(routeSelectAll, server.handleSelectAll)
	router.HandleFunc(routeUnselectAll, server.handleUnselectAll)
	router.HandleFunc(routeCombine, server.handleCombine)
	router.HandleFunc(routeDelete, server.handleDelete)
	return server.logRequests(router)
}

// Run starts the web server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()
	server.logger.Info(logServerListen, zap.String("address", actualAddress))

	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve web interface: %w", serveErr)
		}
		return nil
	})

	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown web interface: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (recorder *statusRecorder) WriteHeader(statusCode int) {
	recorder.statusCode = statusCode
	recorder.ResponseWriter.WriteHeader(statusCode)
}

func (server Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		recorder := &statusRecorder{ResponseWriter: writer, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, request)
		server.logger.Debug(logRequestHandled,
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.Int("status", recorder.statusCode))
	})
}
