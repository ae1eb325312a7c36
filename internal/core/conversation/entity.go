// Package conversation はアシスタントとの会話ログを扱います。
// ログは追記のみで、セッション単位でしか削除されません。
package conversation

import "time"

// Sender はメッセージの送り手です。
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message は会話ログの一件です。
type Message struct {
	ID        string
	CompanyID string
	SessionID string
	Sender    Sender
	Text      string
	Timestamp time.Time
}
