package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
	pgdb "github.com/ogurasousui/planner-assistant/internal/platform/db/postgres"
)

// ConversationRepository は PostgreSQL を利用した会話ログの実装です。
type ConversationRepository struct {
	pool pgdb.Queryer
}

// NewConversationRepository は ConversationRepository を生成します。
func NewConversationRepository(pool pgdb.Queryer) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// Append はメッセージを追記します。
func (r *ConversationRepository) Append(ctx context.Context, m *conversation.Message) (*conversation.Message, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO conversation_messages (company_id, session_id, sender, body, sent_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, company_id, session_id, sender, body, sent_at
    `, m.CompanyID, m.SessionID, string(m.Sender), m.Text, m.Timestamp)

	return scanMessage(row)
}

// ListBySession はセッションのメッセージを追記順に返します。
func (r *ConversationRepository) ListBySession(ctx context.Context, companyID, sessionID string) ([]*conversation.Message, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, company_id, session_id, sender, body, sent_at
          FROM conversation_messages
         WHERE company_id = $1 AND session_id = $2
         ORDER BY seq
    `, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*conversation.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteBySession はセッションのメッセージをすべて削除し、削除件数を返します。
func (r *ConversationRepository) DeleteBySession(ctx context.Context, companyID, sessionID string) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM conversation_messages WHERE company_id = $1 AND session_id = $2`, companyID, sessionID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanMessage(row pgx.Row) (*conversation.Message, error) {
	var (
		m      conversation.Message
		sender string
		sentAt time.Time
	)
	if err := row.Scan(&m.ID, &m.CompanyID, &m.SessionID, &sender, &m.Text, &sentAt); err != nil {
		return nil, err
	}
	m.Sender = conversation.Sender(sender)
	m.Timestamp = sentAt.UTC()
	return &m, nil
}
