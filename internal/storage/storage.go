package storage

import (
	"errors"

	"github.com/tasukuchiba/message_board/internal/models"
)

// ErrClosed はクローズ済みのストレージを操作した場合のエラー
var ErrClosed = errors.New("storage closed")

// Storage はIDをキーとする順序付きのメッセージストレージのインターフェース
// 同じIDへの上書きでは列挙順の位置は変わらない
type Storage interface {
	// Save はメッセージを保存する（同じIDがあれば全体を上書き）
	Save(msg models.Message) error

	// GetAll は全てのメッセージを取得する
	GetAll() ([]models.Message, error)

	// GetByID は指定されたIDのメッセージを取得する
	// 見つからない場合は ok=false を返す
	GetByID(id string) (msg models.Message, ok bool, err error)

	// Delete は指定されたIDのメッセージを削除し、削除したメッセージを返す
	// 見つからない場合は ok=false を返す
	Delete(id string) (msg models.Message, ok bool, err error)

	// Close はストレージを閉じる
	Close() error
}
