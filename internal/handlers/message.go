package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tasukuchiba/message_board/internal/logging"
	"github.com/tasukuchiba/message_board/internal/models"
	"github.com/tasukuchiba/message_board/internal/service"
)

// MessageService はハンドラーが利用するメッセージ操作
type MessageService interface {
	Create(patch models.MessagePatch) (models.Message, error)
	List() ([]models.Message, error)
	Get(id string) (models.Message, error)
	Update(id string, patch models.MessagePatch) (models.Message, error)
	Delete(id string) (models.Message, error)
}

// MessageHandler はメッセージ関連のHTTPリクエストを処理する
type MessageHandler struct {
	service MessageService
}

// NewMessageHandler は新しいMessageHandlerを作成する
func NewMessageHandler(s MessageService) *MessageHandler {
	return &MessageHandler{service: s}
}

// RegisterRoutes は /messages 以下のルートを登録する
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Route("/messages", func(r chi.Router) {
		r.Get("/", h.listMessages)
		r.Post("/", h.createMessage)
		r.Get("/{id}", h.getMessage)
		r.Put("/{id}", h.updateMessage)
		r.Delete("/{id}", h.deleteMessage)
	})
}

// listMessages は全てのメッセージを取得する
func (h *MessageHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.List()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, messages)
}

// createMessage は新しいメッセージを作成する
// 本文のフィールドは検証しない（title/body が無くても作成する）
func (h *MessageHandler) createMessage(w http.ResponseWriter, r *http.Request) {
	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}

	msg, err := h.service.Create(patch)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, msg)
}

// getMessage は指定されたIDのメッセージを取得する
func (h *MessageHandler) getMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, msg)
}

// updateMessage は指定されたIDのメッセージを部分更新する
func (h *MessageHandler) updateMessage(w http.ResponseWriter, r *http.Request) {
	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}

	msg, err := h.service.Update(chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, msg)
}

// deleteMessage は指定されたIDのメッセージを削除し、削除したメッセージを返す
func (h *MessageHandler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.service.Delete(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, msg)
}

// writeError はサービスのエラーをステータスコードに変換する
// 参照時の不在は404、更新・削除時の不在は400
func (h *MessageHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidOperation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.internalError(w, r, err)
	}
}

func (h *MessageHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.Ctx(r.Context())
	logger.Error().Err(err).Msg("request failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// decodePatch はリクエストボディを読み込む。空のボディは空のパッチとして扱う
func decodePatch(w http.ResponseWriter, r *http.Request) (models.MessagePatch, bool) {
	var patch models.MessagePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return models.MessagePatch{}, false
	}
	return patch, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
