// Package memory はプロセス内で完結するリポジトリ実装です。
// 書き込みトランザクションはストア全体で直列化され、作業用のコピーに書き込んでコミット時に差し替えます。
// 公開済みのテーブルは書き換えないため、読み取り側が途中の状態を見ることはありません。
// 会話ログはトランザクションの対象外です。
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/ogurasousui/planner-assistant/internal/core/assignment"
	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
)

var (
	// ErrNoTransaction は書き込みトランザクション外で社員ロックを取ろうとした場合に返却されます。
	ErrNoTransaction = errors.New("memory: employee lock requires a read-write transaction")
	// ErrReadOnlyTransaction は読み取り専用トランザクションの中で書き込もうとした場合に返却されます。
	ErrReadOnlyTransaction = errors.New("memory: write inside a read-only transaction")
)

type txContextKey struct{}

type txState struct {
	tables   *tables
	writable bool
}

// tables はエンティティの一世代分です。値はすべて書き換え時に差し替えます。
type tables struct {
	employees     map[string]*employee.Employee
	employeeOrder []string
	projects      map[string]*project.Project
	projectOrder  []string
	assignments   map[string]*assignment.Assignment
}

func (t *tables) clone() *tables {
	return &tables{
		employees:     maps.Clone(t.employees),
		employeeOrder: slices.Clone(t.employeeOrder),
		projects:      maps.Clone(t.projects),
		projectOrder:  slices.Clone(t.projectOrder),
		assignments:   maps.Clone(t.assignments),
	}
}

// Store は全エンティティを保持します。
type Store struct {
	mu      sync.RWMutex
	current *tables

	writeSem chan struct{}

	msgMu    sync.RWMutex
	messages []*conversation.Message
}

// NewStore は空の Store を生成します。
func NewStore() *Store {
	return &Store{
		current: &tables{
			employees:   make(map[string]*employee.Employee),
			projects:    make(map[string]*project.Project),
			assignments: make(map[string]*assignment.Assignment),
		},
		writeSem: make(chan struct{}, 1),
	}
}

func (s *Store) load() *tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) publish(next *tables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
}

// read はトランザクション内なら作業中のテーブルを、それ以外なら公開済みのテーブルを返します。
// 返したテーブルを書き換えてはいけません。
func (s *Store) read(ctx context.Context) *tables {
	if st, ok := stateFromContext(ctx); ok {
		return st.tables
	}
	return s.load()
}

// write は fn をトランザクションの作業用テーブルに適用します。
// トランザクション外では一文だけのトランザクションとして扱います。
func (s *Store) write(ctx context.Context, fn func(*tables) error) error {
	if st, ok := stateFromContext(ctx); ok {
		if !st.writable {
			return ErrReadOnlyTransaction
		}
		return fn(st.tables)
	}

	if err := s.acquireWrite(ctx); err != nil {
		return err
	}
	defer s.releaseWrite()

	next := s.load().clone()
	if err := fn(next); err != nil {
		return err
	}
	s.publish(next)
	return nil
}

func (s *Store) acquireWrite(ctx context.Context) error {
	select {
	case s.writeSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) releaseWrite() {
	<-s.writeSem
}

// TransactionManager は Store 向けのトランザクション制御です。
type TransactionManager struct {
	store *Store
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store}
}

// WithinReadOnly は開始時点の公開済みテーブルを固定して fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("memory: transaction function is required")
	}
	if _, ok := stateFromContext(ctx); ok {
		return fn(ctx)
	}
	return fn(context.WithValue(ctx, txContextKey{}, &txState{tables: m.store.load()}))
}

// WithinReadWrite は書き込みトランザクションを一つずつ実行します。
// fn がエラーを返した場合、またはコンテキストが取り消された場合は作業用のテーブルを捨てます。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("memory: transaction function is required")
	}
	if st, ok := stateFromContext(ctx); ok {
		if !st.writable {
			return ErrReadOnlyTransaction
		}
		return fn(ctx)
	}

	if err := m.store.acquireWrite(ctx); err != nil {
		return err
	}
	defer m.store.releaseWrite()

	staging := m.store.load().clone()
	txCtx := context.WithValue(ctx, txContextKey{}, &txState{tables: staging, writable: true})

	err := fn(txCtx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return err
	}
	m.store.publish(staging)
	return nil
}

// LockEmployee は書き込みトランザクション内であることだけを確認します。
// 書き込みトランザクション自体が直列化されているためです。
func (m *TransactionManager) LockEmployee(ctx context.Context, _ string) error {
	st, ok := stateFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !st.writable {
		return ErrReadOnlyTransaction
	}
	return nil
}

func stateFromContext(ctx context.Context) (*txState, bool) {
	st, ok := ctx.Value(txContextKey{}).(*txState)
	return st, ok
}
