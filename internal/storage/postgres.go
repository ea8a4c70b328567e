package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/tasukuchiba/message_board/internal/models"
)

// PostgresStorage はメッセージをPostgreSQLに保存するストレージ
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage は新しいPostgresStorageを作成する
func NewPostgresStorage(databaseURL string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// 接続プール設定
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 接続確認
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	storage := &PostgresStorage{db: db}

	// テーブル作成
	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// migrate はデータベーススキーマを作成する
// seq は挿入順を保持するための列で、上書き時には変わらない
func (s *PostgresStorage) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS board_messages (
			seq BIGSERIAL,
			id VARCHAR(36) PRIMARY KEY,
			title TEXT,
			body TEXT,
			attachment_url TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE
		);
		CREATE INDEX IF NOT EXISTS idx_board_messages_seq ON board_messages(seq);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save はメッセージを保存する（同じIDがあれば上書き）
func (s *PostgresStorage) Save(msg models.Message) error {
	query := `
		INSERT INTO board_messages (id, title, body, attachment_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			attachment_url = EXCLUDED.attachment_url,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.Exec(query, msg.ID, msg.Title, msg.Body, msg.AttachmentURL, msg.CreatedAt, msg.UpdatedAt)
	return err
}

// GetAll は全てのメッセージを挿入順に取得する
func (s *PostgresStorage) GetAll() ([]models.Message, error) {
	query := `
		SELECT id, title, body, attachment_url, created_at, updated_at
		FROM board_messages
		ORDER BY seq ASC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// GetByID は指定されたIDのメッセージを取得する
func (s *PostgresStorage) GetByID(id string) (models.Message, bool, error) {
	query := `
		SELECT id, title, body, attachment_url, created_at, updated_at
		FROM board_messages
		WHERE id = $1
	`
	msg, err := scanMessage(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, false, nil
	}
	if err != nil {
		return models.Message{}, false, err
	}
	return msg, true, nil
}

// Delete は指定されたIDのメッセージを削除する
func (s *PostgresStorage) Delete(id string) (models.Message, bool, error) {
	query := `
		DELETE FROM board_messages
		WHERE id = $1
		RETURNING id, title, body, attachment_url, created_at, updated_at
	`
	msg, err := scanMessage(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, false, nil
	}
	if err != nil {
		return models.Message{}, false, err
	}
	return msg, true, nil
}

// Close はデータベース接続を閉じる
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (models.Message, error) {
	var (
		msg                    models.Message
		title, body, attachURL sql.NullString
		updatedAt              sql.NullTime
	)
	if err := row.Scan(&msg.ID, &title, &body, &attachURL, &msg.CreatedAt, &updatedAt); err != nil {
		return models.Message{}, err
	}
	msg.Title = nullString(title)
	msg.Body = nullString(body)
	msg.AttachmentURL = nullString(attachURL)
	msg.CreatedAt = msg.CreatedAt.UTC()
	if updatedAt.Valid {
		msg.UpdatedAt = lo.ToPtr(updatedAt.Time.UTC())
	}
	return msg, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return lo.ToPtr(ns.String)
}
