package conversation

import "context"

// Repository は会話ログの永続化を行うインターフェースです。
// セッションは会社 ID とセッション ID の組で識別します。
// ListBySession は追記順に返します。
type Repository interface {
	Append(ctx context.Context, message *Message) (*Message, error)
	ListBySession(ctx context.Context, companyID, sessionID string) ([]*Message, error)
	DeleteBySession(ctx context.Context, companyID, sessionID string) (int, error)
}
