package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/tasukuchiba/message_board/internal/logging"
	"github.com/tasukuchiba/message_board/internal/websocket"
)

// NewRouter はHTTPルートを組み立てる
// hub が nil の場合は /ws を登録しない
func NewRouter(messages *MessageHandler, hub *websocket.Hub, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.HTTPMiddleware(logger))
	r.Use(middleware.Recoverer)

	messages.RegisterRoutes(r)

	// 変更通知用のWebSocketエンドポイント
	if hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWs(hub, w, r)
		})
	}

	// ヘルスチェック用エンドポイント
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
