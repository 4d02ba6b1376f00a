package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"nhooyr.io/websocket"

	"github.com/arvanplay/gamecore/pkg/games"
	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/log"
	"github.com/arvanplay/gamecore/pkg/notifier"
	"github.com/arvanplay/gamecore/pkg/workers"
)

func HandleStartGame(manager *workers.RunnerManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := uuid.Parse(mux.Vars(r)["gameID"])
		if err != nil {
			http.Error(w, "Invalid game id", http.StatusBadRequest)
			return
		}

		if err := manager.StartGame(r.Context(), gameID); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

type submitActionRequest struct {
	PlayerID uuid.UUID    `json:"player_id"`
	Action   types.Action `json:"action"`
}

func HandleSubmitAction(manager *workers.RunnerManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := uuid.Parse(mux.Vars(r)["gameID"])
		if err != nil {
			http.Error(w, "Invalid game id", http.StatusBadRequest)
			return
		}

		var req submitActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := manager.SubmitAction(r.Context(), gameID, req.PlayerID, req.Action); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleWebSocket upgrades the connection and joins the notifier hub so
// the client receives the game's event stream.
func HandleWebSocket(hub *notifier.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		gameID, err := uuid.Parse(vars["gameID"])
		if err != nil {
			http.Error(w, "Invalid game id", http.StatusBadRequest)
			return
		}
		playerID, err := uuid.Parse(vars["playerID"])
		if err != nil {
			http.Error(w, "Invalid player id", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Error("Failed to accept WebSocket connection: %v", err)
			return
		}
		leave := hub.Join(gameID, playerID, conn)
		defer leave()

		// Clients only receive events on this connection; reads are
		// drained to detect the close.
		ctx := conn.CloseRead(r.Context())
		<-ctx.Done()
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case games.IsGameNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case games.IsPlayerNotInGame(err):
		http.Error(w, err.Error(), http.StatusForbidden)
	case games.IsInvalidState(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case games.IsInvalidAction(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case games.IsUnsupportedGameType(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error("Unexpected engine error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
