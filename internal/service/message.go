package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tasukuchiba/message_board/internal/clock"
	"github.com/tasukuchiba/message_board/internal/models"
	"github.com/tasukuchiba/message_board/internal/storage"
)

var (
	// ErrNotFound は参照したメッセージが存在しない場合のエラー
	ErrNotFound = errors.New("message not found")

	// ErrInvalidOperation は存在しないメッセージを更新・削除しようとした場合のエラー
	ErrInvalidOperation = errors.New("invalid operation")
)

// MessageError は対象のIDと操作を保持するエラー
type MessageError struct {
	Op  string
	ID  string
	Err error
}

func (e *MessageError) Error() string {
	switch e.Op {
	case "update":
		return fmt.Sprintf("Couldn't update a message with id=%s. Message not found", e.ID)
	case "delete":
		return fmt.Sprintf("Couldn't delete a message with id=%s. Message not found", e.ID)
	default:
		return fmt.Sprintf("The message with id=%s not found", e.ID)
	}
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

// Publisher はメッセージの変更通知を受け取る
type Publisher interface {
	Publish(event models.Event)
}

// MessageService はメッセージのCRUDを提供する
// ストレージへの操作はすべて直列化され、リクエスト同士が同じレコード上で交錯しない
type MessageService struct {
	mu        sync.Mutex
	store     storage.Storage
	clock     clock.Clock
	newID     func() (string, error)
	publisher Publisher
}

// Option はMessageServiceの設定を変更する
type Option func(*MessageService)

// WithClock は時刻源を差し替える
func WithClock(c clock.Clock) Option {
	return func(s *MessageService) { s.clock = c }
}

// WithIDGenerator はID生成関数を差し替える
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *MessageService) { s.newID = fn }
}

// WithPublisher は変更通知先を設定する
func WithPublisher(p Publisher) Option {
	return func(s *MessageService) { s.publisher = p }
}

// NewMessageService は新しいMessageServiceを作成する
func NewMessageService(store storage.Storage, opts ...Option) *MessageService {
	s := &MessageService{
		store: store,
		clock: clock.NewSystemClock(),
		newID: newTimeOrderedID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newTimeOrderedID はUUIDv7を生成する
// 文字列の辞書順が生成順と一致するため、キー順のストレージでも挿入順に列挙できる
func newTimeOrderedID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Create は新しいメッセージを作成して保存する
// id と createdAt は常にサーバー側の値が使われる
func (s *MessageService) Create(patch models.MessagePatch) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.newID()
	if err != nil {
		return models.Message{}, fmt.Errorf("generate id: %w", err)
	}

	msg := patch.Apply(models.Message{})
	msg.ID = id
	msg.CreatedAt = clock.Now(s.clock)
	msg.UpdatedAt = nil

	if err := s.store.Save(msg); err != nil {
		return models.Message{}, fmt.Errorf("save message %s: %w", id, err)
	}
	s.publish(models.EventCreated, msg)
	return msg, nil
}

// List は全てのメッセージをストレージの列挙順で返す
func (s *MessageService) List() ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Get は指定されたIDのメッセージを返す
func (s *MessageService) Get(id string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok, err := s.store.GetByID(id)
	if err != nil {
		return models.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	if !ok {
		return models.Message{}, &MessageError{Op: "get", ID: id, Err: ErrNotFound}
	}
	return msg, nil
}

// Update は既存のメッセージにpatchを浅くマージし、updatedAtを更新して保存する
// updatedAt はマージの後に設定するため、クライアントからは偽装できない
func (s *MessageService) Update(id string, patch models.MessagePatch) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.store.GetByID(id)
	if err != nil {
		return models.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	if !ok {
		return models.Message{}, &MessageError{Op: "update", ID: id, Err: ErrInvalidOperation}
	}

	updated := patch.Apply(current)
	now := clock.Now(s.clock)
	updated.UpdatedAt = &now

	if err := s.store.Save(updated); err != nil {
		return models.Message{}, fmt.Errorf("save message %s: %w", id, err)
	}
	s.publish(models.EventUpdated, updated)
	return updated, nil
}

// Delete は指定されたIDのメッセージを削除し、削除前のメッセージを返す
func (s *MessageService) Delete(id string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, ok, err := s.store.Delete(id)
	if err != nil {
		return models.Message{}, fmt.Errorf("delete message %s: %w", id, err)
	}
	if !ok {
		return models.Message{}, &MessageError{Op: "delete", ID: id, Err: ErrInvalidOperation}
	}
	s.publish(models.EventDeleted, deleted)
	return deleted, nil
}

func (s *MessageService) publish(eventType models.EventType, msg models.Message) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(models.Event{Type: eventType, Message: msg})
}
