package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

type fakeRepo struct {
	messages []*Message
}

func (r *fakeRepo) Append(_ context.Context, message *Message) (*Message, error) {
	copy := *message
	copy.ID = fmt.Sprintf("m-%d", len(r.messages)+1)
	r.messages = append(r.messages, &copy)
	out := copy
	return &out, nil
}

func (r *fakeRepo) ListBySession(_ context.Context, companyID, sessionID string) ([]*Message, error) {
	var result []*Message
	for _, m := range r.messages {
		if m.CompanyID == companyID && m.SessionID == sessionID {
			copy := *m
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (r *fakeRepo) DeleteBySession(_ context.Context, companyID, sessionID string) (int, error) {
	kept := r.messages[:0]
	removed := 0
	for _, m := range r.messages {
		if m.CompanyID == companyID && m.SessionID == sessionID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.messages = kept
	return removed, nil
}

func TestService_AppendAndHistory(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeRepo{}, &stubClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	if _, err := svc.Append(ctx, "company-1", "s1", SenderUser, "assign anna to apollo"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if _, err := svc.Append(ctx, "company-1", "s2", SenderUser, "hello"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if _, err := svc.Append(ctx, "company-1", "s1", SenderAssistant, "Which date?"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	history, err := svc.History(ctx, "company-1", "s1")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 2 || history[0].Sender != SenderUser || history[1].Sender != SenderAssistant {
		t.Fatalf("unexpected history: %+v", history)
	}
	if !history[0].Timestamp.Before(history[1].Timestamp) {
		t.Fatalf("expected timestamps in append order")
	}
}

func TestService_Clear(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := NewService(repo, nil)
	ctx := context.Background()

	for range 3 {
		if _, err := svc.Append(ctx, "company-1", "s1", SenderUser, "hi"); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}
	if _, err := svc.Append(ctx, "company-1", "s2", SenderUser, "hi"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	removed, err := svc.Clear(ctx, "company-1", "s1")
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if removed != 3 || len(repo.messages) != 1 {
		t.Fatalf("expected 3 removed and 1 kept, got %d / %d", removed, len(repo.messages))
	}
}

func TestService_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeRepo{}, nil)

	if _, err := svc.Append(context.Background(), "company-1", " ", SenderUser, "hi"); !errors.Is(err, ErrInvalidSessionID) {
		t.Fatalf("expected ErrInvalidSessionID, got %v", err)
	}
	if _, err := svc.Append(context.Background(), "company-1", "s1", Sender("robot"), "hi"); !errors.Is(err, ErrInvalidSender) {
		t.Fatalf("expected ErrInvalidSender, got %v", err)
	}
}

func TestService_SessionsAreScopedByCompany(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := NewService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Append(ctx, "company-1", "s1", SenderUser, "assign anna to apollo"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if _, err := svc.Append(ctx, "company-2", "s1", SenderUser, "hello"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	history, err := svc.History(ctx, "company-2", "s1")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 1 || history[0].Text != "hello" || history[0].CompanyID != "company-2" {
		t.Fatalf("expected only company-2 messages, got %+v", history)
	}

	removed, err := svc.Clear(ctx, "company-2", "s1")
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	rest, err := svc.History(ctx, "company-1", "s1")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(rest) != 1 || rest[0].Text != "assign anna to apollo" {
		t.Fatalf("expected company-1 history untouched, got %+v", rest)
	}
}
