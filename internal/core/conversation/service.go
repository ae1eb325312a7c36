package conversation

import (
	"context"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service は会話ログへの追記と参照を提供します。
type Service struct {
	repo  Repository
	clock Clock
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// Append はセッションにメッセージを追記します。
// 会社 ID が異なれば同じセッション ID でも別のセッションとして扱います。
func (s *Service) Append(ctx context.Context, companyID, sessionID string, sender Sender, text string) (*Message, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}
	switch sender {
	case SenderUser, SenderAssistant:
	default:
		return nil, ErrInvalidSender
	}

	return s.repo.Append(ctx, &Message{
		CompanyID: strings.TrimSpace(companyID),
		SessionID: sessionID,
		Sender:    sender,
		Text:      text,
		Timestamp: s.clock.Now(),
	})
}

// History はセッションのメッセージを古い順に返します。
func (s *Service) History(ctx context.Context, companyID, sessionID string) ([]*Message, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}
	return s.repo.ListBySession(ctx, strings.TrimSpace(companyID), sessionID)
}

// Clear はセッションのメッセージをすべて削除し、削除件数を返します。
func (s *Service) Clear(ctx context.Context, companyID, sessionID string) (int, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, ErrInvalidSessionID
	}
	return s.repo.DeleteBySession(ctx, strings.TrimSpace(companyID), sessionID)
}
