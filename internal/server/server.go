package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/jxin/knowledgeqa/internal/adapter/utils"
	"github.com/jxin/knowledgeqa/internal/config"
	"github.com/jxin/knowledgeqa/internal/handlers"
	"github.com/jxin/knowledgeqa/internal/middleware"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	CloseServices    context.CancelFunc
}

func CreateServer(listenAddr string, h *handlers.Handler) {
	_logger = logger_i.NewLogger("Server")

	r := utils.GetRouter()

	r.Router.Get("/health", middleware.Wrap(handlers.GetHandler))

	r.Router.Post("/documents", middleware.Wrap(h.UploadDocument))
	r.Router.Get("/documents", middleware.Wrap(h.ListDocuments))
	r.Router.Delete("/documents/{id}", middleware.Wrap(h.DeleteDocument))

	r.Router.Post("/chat", middleware.Wrap(h.Chat))
	r.Router.Get("/chat/{session_id}/history", middleware.Wrap(h.GetHistory))
	r.Router.Delete("/chat/{session_id}/history", middleware.Wrap(h.ClearHistory))

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error :", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	println("\nServer is shutting down", state)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully: %s", err)
		}

		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully is shutting down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
