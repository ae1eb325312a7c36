package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
)

// ConversationRepository は Store 上の会話ログです。
type ConversationRepository struct {
	store *Store
}

// NewConversationRepository は ConversationRepository を生成します。
func NewConversationRepository(store *Store) *ConversationRepository {
	return &ConversationRepository{store: store}
}

func (r *ConversationRepository) Append(_ context.Context, m *conversation.Message) (*conversation.Message, error) {
	r.store.msgMu.Lock()
	defer r.store.msgMu.Unlock()

	clone := *m
	clone.ID = uuid.NewString()
	r.store.messages = append(r.store.messages, &clone)
	out := clone
	return &out, nil
}

func (r *ConversationRepository) ListBySession(_ context.Context, companyID, sessionID string) ([]*conversation.Message, error) {
	r.store.msgMu.RLock()
	defer r.store.msgMu.RUnlock()

	var result []*conversation.Message
	for _, m := range r.store.messages {
		if m.CompanyID == companyID && m.SessionID == sessionID {
			clone := *m
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *ConversationRepository) DeleteBySession(_ context.Context, companyID, sessionID string) (int, error) {
	r.store.msgMu.Lock()
	defer r.store.msgMu.Unlock()

	before := len(r.store.messages)
	r.store.messages = slices.DeleteFunc(slices.Clone(r.store.messages), func(m *conversation.Message) bool {
		return m.CompanyID == companyID && m.SessionID == sessionID
	})
	return before - len(r.store.messages), nil
}
