package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tasukuchiba/message_board/internal/logging"
	"github.com/tasukuchiba/message_board/internal/models"
)

// broadcastBuffer はブロードキャスト用チャネルのバッファサイズ
const broadcastBuffer = 256

// Hub は全WebSocketクライアントの接続を管理し、メッセージの変更を配信する
type Hub struct {
	mu sync.RWMutex

	// 接続中のクライアント
	clients map[*Client]bool

	// ブロードキャスト用チャネル
	broadcast chan []byte

	// クライアント登録用チャネル
	register chan *Client

	// クライアント登録解除用チャネル
	unregister chan *Client

	// Runの終了時にクローズされる
	done chan struct{}

	log zerolog.Logger
}

// NewHub は新しいHubを作成する
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.With().Str("component", "hub").Logger(),
	}
}

// Run はHubのメインループを開始する。ctxがキャンセルされると全クライアントを切断して戻る
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Str("client", client.name).Int("total", total).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Str("client", client.name).Int("total", total).Msg("client unregistered")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 受信が追いつかないクライアントは切断する
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish はメッセージの変更イベントを全クライアントに配信する
// バッファが一杯の場合は呼び出し側を待たせずにイベントを破棄する
func (h *Hub) Publish(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str(logging.FieldMessageID, event.Message.ID).Msg("failed to encode event")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.log.Warn().Str("type", string(event.Type)).Str(logging.FieldMessageID, event.Message.ID).Msg("broadcast buffer full, event dropped")
	}
}

// ClientCount は接続中のクライアント数を返す
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
