package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/arvanplay/gamecore/pkg/api/handlers"
	"github.com/arvanplay/gamecore/pkg/log"
	"github.com/arvanplay/gamecore/pkg/notifier"
	"github.com/arvanplay/gamecore/pkg/workers"
)

type APIServer struct {
	server *http.Server
}

type NewAPIServerOptions struct {
	Port    int
	Manager *workers.RunnerManager
	Hub     *notifier.Hub
}

// NewAPIServer creates the http.Server that forwards player requests to
// the game engine and streams events back over WebSocket.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	router := mux.NewRouter()
	router.HandleFunc("/games/{gameID}/start", handlers.HandleStartGame(opts.Manager)).Methods(http.MethodPost)
	router.HandleFunc("/games/{gameID}/actions", handlers.HandleSubmitAction(opts.Manager)).Methods(http.MethodPost)
	router.HandleFunc("/ws/{gameID}/{playerID}", handlers.HandleWebSocket(opts.Hub)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return &APIServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", opts.Port),
			Handler: router,
		},
	}
}

// Start starts the APIServer.
func (s *APIServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.server.Shutdown(context.Background())
	}()

	log.Info("API server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}
