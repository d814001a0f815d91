package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/adapter/utils"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/handlers"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/middleware"
	"github.com/moonmehedi/A-Rag-System-to-Read-Books/pkg/logger_i"
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

// CreateServer binds the routes and blocks until the server stops. The write
// timeout is long on purpose; token streams hold the response open.
func CreateServer(listenAddr string, chain *middleware.Chain, ragHandler *handlers.RagHandler) {
	_logger = logger_i.NewLogger("Server")

	r := utils.GetRouter()

	r.Router.Post("/rag/upload-doc", chain.WrapAuthenticated(ragHandler.UploadDoc))
	r.Router.Post("/rag/ask-doc", chain.Wrap(ragHandler.AskDoc))
	r.Router.Post("/rag/chat", chain.WrapAuthenticated(ragHandler.Chat))
	r.Router.Post("/rag/chat/stream", chain.WrapAuthenticated(ragHandler.ChatStream))
	r.Router.Get("/chat/messages", chain.WrapAuthenticated(ragHandler.Messages))
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
			_logger.Error("Could not shutdown gracefully", "error", err)
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
