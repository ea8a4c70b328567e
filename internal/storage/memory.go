package storage

import (
	"sync"

	"github.com/samber/lo"
	"github.com/tasukuchiba/message_board/internal/models"
)

// MemoryStorage はメッセージをメモリ上に保存するストレージ
type MemoryStorage struct {
	mu       sync.RWMutex
	messages []models.Message
}

// NewMemoryStorage は新しいMemoryStorageを作成する
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		messages: make([]models.Message, 0),
	}
}

// Save はメッセージを保存する
func (s *MemoryStorage) Save(msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(msg.ID); i >= 0 {
		s.messages[i] = msg
		return nil
	}
	s.messages = append(s.messages, msg)
	return nil
}

// GetAll は全てのメッセージを取得する
func (s *MemoryStorage) GetAll() ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Message, len(s.messages))
	copy(result, s.messages)
	return result, nil
}

// GetByID は指定されたIDのメッセージを取得する
func (s *MemoryStorage) GetByID(id string) (models.Message, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.messages[i], true, nil
	}
	return models.Message{}, false, nil
}

// Delete は指定されたIDのメッセージを削除する
func (s *MemoryStorage) Delete(id string) (models.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Message{}, false, nil
	}
	msg := s.messages[i]
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
	return msg, true, nil
}

// Close は何もしない
func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) indexOf(id string) int {
	_, i, ok := lo.FindIndexOf(s.messages, func(m models.Message) bool {
		return m.ID == id
	})
	if !ok {
		return -1
	}
	return i
}
