package models

import "time"

// Message は掲示板に投稿されるメッセージを表す構造体
// Title/Body/AttachmentURL は未指定を表現するためポインタで持つ
type Message struct {
	ID            string     `json:"id"`
	Title         *string    `json:"title,omitempty"`
	Body          *string    `json:"body,omitempty"`
	AttachmentURL *string    `json:"attachmentURL,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt"`
}

// MessagePatch はクライアントが書き込めるフィールドの集合
// id/createdAt/updatedAt はサーバー側で設定するため含まない
type MessagePatch struct {
	Title         *string `json:"title"`
	Body          *string `json:"body"`
	AttachmentURL *string `json:"attachmentURL"`
}

// Apply は指定されたフィールドだけを上書きしたコピーを返す（浅いマージ）
func (p MessagePatch) Apply(msg Message) Message {
	if p.Title != nil {
		msg.Title = p.Title
	}
	if p.Body != nil {
		msg.Body = p.Body
	}
	if p.AttachmentURL != nil {
		msg.AttachmentURL = p.AttachmentURL
	}
	return msg
}

// EventType はメッセージの変更種別
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event はメッセージの変更通知
type Event struct {
	Type    EventType `json:"type"`
	Message Message   `json:"message"`
}
