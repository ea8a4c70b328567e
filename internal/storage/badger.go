package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/tasukuchiba/message_board/internal/models"
)

// messageKeyPrefix はメッセージのキー接頭辞
// キーは "msg:{id}" でバイト順に並ぶため、時系列順のID（UUIDv7）を使えば挿入順に列挙される
const messageKeyPrefix = "msg:"

// BadgerStorage はメッセージをBadgerDBに保存する永続ストレージ
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage はdirにBadgerDBを開いてBadgerStorageを作成する
func NewBadgerStorage(dir string, logger zerolog.Logger) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log: logger.With().Str("component", "badger").Logger()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &BadgerStorage{db: db}, nil
}

// NewBadgerStorageFromDB は既に開かれたDBからBadgerStorageを作成する
func NewBadgerStorageFromDB(db *badger.DB) *BadgerStorage {
	return &BadgerStorage{db: db}
}

func messageKey(id string) []byte {
	return []byte(messageKeyPrefix + id)
}

// Save はメッセージを保存する
func (s *BadgerStorage) Save(msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", msg.ID, err)
	}
	return s.wrap(s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg.ID), data)
	}))
}

// GetAll は全てのメッセージをキー順に取得する
func (s *BadgerStorage) GetAll() ([]models.Message, error) {
	messages := make([]models.Message, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messageKeyPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var msg models.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return messages, nil
}

// GetByID は指定されたIDのメッセージを取得する
func (s *BadgerStorage) GetByID(id string) (models.Message, bool, error) {
	var msg models.Message
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &msg)
		})
	})
	if err != nil {
		return models.Message{}, false, s.wrap(err)
	}
	return msg, found, nil
}

// Delete は指定されたIDのメッセージを削除する
func (s *BadgerStorage) Delete(id string) (models.Message, bool, error) {
	var msg models.Message
	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := messageKey(id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &msg)
		}); err != nil {
			return err
		}
		found = true
		return txn.Delete(key)
	})
	if err != nil {
		return models.Message{}, false, s.wrap(err)
	}
	return msg, found, nil
}

// Close はDBを閉じる
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

func (s *BadgerStorage) wrap(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return err
}

// badgerLogger はBadgerのログをzerologへ流す
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Infof はBadgerの起動・圧縮ログが多いためDebugレベルで出力する
func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
