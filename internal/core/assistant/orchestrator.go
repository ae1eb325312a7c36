package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
	"github.com/ogurasousui/planner-assistant/internal/core/tool"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Options は Orchestrator の依存関係です。
type Options struct {
	Registry     *tool.Registry
	Conversation *conversation.Service
	Logger       *slog.Logger
	Metrics      Metrics
	Clock        Clock
	// TurnTimeout が 0 の場合、ターンの時間制限は呼び出し元のコンテキストに任せます。
	TurnTimeout time.Duration
	// SessionIdleTTL を過ぎて使われていない保留中の呼び出しは破棄されます。0 の場合は 30 分です。
	SessionIdleTTL time.Duration
}

const defaultSessionIdleTTL = 30 * time.Minute

// Orchestrator はセッションごとにターンを順番に処理します。
// セッションは会社 ID とセッション ID の組で識別し、異なるセッションのターンは並行して処理できます。
type Orchestrator struct {
	registry     *tool.Registry
	conversation *conversation.Service
	logger       *slog.Logger
	metrics      Metrics
	clock        Clock
	turnTimeout  time.Duration
	sessionTTL   time.Duration

	mu       sync.Mutex
	sessions map[sessionKey]*session
}

type sessionKey struct {
	companyID string
	sessionID string
}

// session の pending は sem を保持している間だけ参照します。
// refs と lastAccess は Orchestrator.mu で保護します。
type session struct {
	sem     chan struct{}
	pending *PendingToolCall

	refs       int
	lastAccess time.Time
}

func (s *session) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) release() {
	<-s.sem
}

// New は Orchestrator を生成します。
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	ttl := opts.SessionIdleTTL
	if ttl <= 0 {
		ttl = defaultSessionIdleTTL
	}
	return &Orchestrator{
		registry:     opts.Registry,
		conversation: opts.Conversation,
		logger:       logger.With(slog.String("component", "assistant")),
		metrics:      metrics,
		clock:        clock,
		turnTimeout:  opts.TurnTimeout,
		sessionTTL:   ttl,
		sessions:     make(map[sessionKey]*session),
	}
}

// Tools はカタログのツール一覧を返します。
func (o *Orchestrator) Tools() []*tool.Tool {
	return o.registry.List()
}

// Invoke は会話を介さずにツールを直接実行します。
func (o *Orchestrator) Invoke(ctx context.Context, companyID, name string, args tool.Args) (*tool.Result, error) {
	ctx = tool.WithCompanyID(ctx, companyID)
	result, err := o.registry.Invoke(ctx, name, args)
	o.metrics.ObserveTool(name, string(tool.Classify(err)))
	if err != nil && tool.Classify(err) == tool.KindInternal {
		o.logger.ErrorContext(ctx, "tool invocation failed", slog.String("tool", name), slog.Any("error", err))
	}
	return result, err
}

// Pending はセッションに保留中のツール呼び出しの複製を返します。
// 同じセッションのターンが終わるまで待機し、待機中に取り消された場合はエラーを返します。
func (o *Orchestrator) Pending(ctx context.Context, companyID, sessionID string) (*PendingToolCall, bool, error) {
	key := newSessionKey(companyID, sessionID)
	s := o.checkout(key)
	if err := s.acquire(ctx); err != nil {
		o.checkin(key, s, false)
		return nil, false, err
	}
	defer o.leave(key, s)

	return s.pending.clone(), s.pending != nil, nil
}

// History はセッションの会話ログを返します。
func (o *Orchestrator) History(ctx context.Context, companyID, sessionID string) ([]*conversation.Message, error) {
	if o.conversation == nil {
		return nil, nil
	}
	return o.conversation.History(ctx, companyID, sessionID)
}

// ClearSession はセッションの保留中の呼び出しと会話ログを破棄します。
func (o *Orchestrator) ClearSession(ctx context.Context, companyID, sessionID string) error {
	key := newSessionKey(companyID, sessionID)
	if key.sessionID == "" {
		return conversation.ErrInvalidSessionID
	}

	s := o.checkout(key)
	if err := s.acquire(ctx); err != nil {
		o.checkin(key, s, false)
		return err
	}
	defer o.leave(key, s)

	s.pending = nil
	if o.conversation == nil {
		return nil
	}
	removed, err := o.conversation.Clear(ctx, key.companyID, key.sessionID)
	if err != nil {
		return err
	}
	o.logger.InfoContext(ctx, "session cleared",
		slog.String("company_id", key.companyID),
		slog.String("session_id", key.sessionID),
		slog.Int("messages", removed))
	return nil
}

// SessionCount は保持しているセッションの数を返します。
func (o *Orchestrator) SessionCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

// HandleTurn は 1 ターンを最後まで進めて応答を返します。
// 同じセッションの前のターンが終わるまで待機します。待機中に取り消された場合は aborted を返します。
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*Response, error) {
	key := newSessionKey(req.CompanyID, req.SessionID)
	if key.sessionID == "" {
		return nil, conversation.ErrInvalidSessionID
	}

	started := o.clock.Now()
	if o.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.turnTimeout)
		defer cancel()
	}
	ctx = tool.WithCompanyID(ctx, key.companyID)

	t := &turn{resp: &Response{SessionID: key.sessionID}}
	t.enter(StateAwaitingIntent)

	s := o.checkout(key)
	if err := s.acquire(ctx); err != nil {
		o.checkin(key, s, false)
		t.abort(err)
		o.finish(ctx, t, started)
		return t.resp, nil
	}
	defer o.leave(key, s)

	o.record(ctx, key, conversation.SenderUser, req.Message)

	o.run(ctx, s, req.Intent, t)

	o.record(context.WithoutCancel(ctx), key, conversation.SenderAssistant, t.resp.Message)
	o.finish(ctx, t, started)
	return t.resp, nil
}

func (o *Orchestrator) run(ctx context.Context, s *session, intent *Intent, t *turn) {
	name := ""
	var params tool.Args
	if intent != nil {
		name = strings.TrimSpace(intent.Tool)
		params = intent.Params
	}

	call := s.pending
	switch {
	case name == "" && call == nil:
		t.respond(OutcomeUnsupported, tool.KindUnsupported, noToolMessage())
		return
	case name == "" || (call != nil && call.Tool == name):
	default:
		if _, ok := o.registry.Lookup(name); !ok {
			t.resp.Tool = name
			t.respond(OutcomeUnsupported, tool.KindUnsupported, unknownToolMessage(name))
			return
		}
		call = &PendingToolCall{Tool: name, Resolved: tool.Args{}, CreatedAt: o.clock.Now()}
	}

	def, _ := o.registry.Lookup(call.Tool)
	t.resp.Tool = def.Name

	t.enter(StateResolvingParameters)
	if err := ctx.Err(); err != nil {
		s.pending = nil
		t.abort(err)
		return
	}

	merged := call.clone()
	merged.Resolved = merged.Resolved.Merge(params)
	merged.Missing = def.Missing(merged.Resolved)
	if len(merged.Missing) > 0 {
		s.pending = merged
		param, _ := def.Param(merged.Missing[0])
		t.resp.ClarificationNeeded = true
		t.resp.MissingParameter = param.Name
		t.respond(OutcomeClarification, tool.KindMissingParameter, questionFor(def, param))
		return
	}

	// ここから先は成否にかかわらず保留中の呼び出しを破棄します。
	s.pending = nil

	t.enter(StateValidating)
	if err := ctx.Err(); err != nil {
		t.abort(err)
		return
	}
	if err := o.registry.Check(ctx, def.Name, merged.Resolved); err != nil {
		if isCanceled(ctx, err) {
			t.abort(err)
			return
		}
		o.observeRejection(err)
		o.logFailure(ctx, def.Name, err)
		t.respond(OutcomeRejected, tool.Classify(err), explain(err))
		return
	}

	t.enter(StateExecuting)
	if err := ctx.Err(); err != nil {
		t.abort(err)
		return
	}
	result, err := o.registry.Invoke(ctx, def.Name, merged.Resolved)
	o.metrics.ObserveTool(def.Name, string(tool.Classify(err)))
	if err != nil {
		if isCanceled(ctx, err) {
			t.abort(err)
			return
		}
		o.observeRejection(err)
		o.logFailure(ctx, def.Name, err)
		t.respond(OutcomeFailed, tool.Classify(err), explain(err))
		return
	}

	if def.Mutates {
		o.logger.InfoContext(ctx, "tool executed",
			slog.String("tool", def.Name),
			slog.String("company_id", tool.CompanyIDFromContext(ctx)),
			slog.Int("records", len(result.Records)))
	}
	t.resp.AffectedRecords = result.Records
	t.resp.Data = result.Data
	t.respond(OutcomeExecuted, tool.KindNone, result.Summary)
}

func newSessionKey(companyID, sessionID string) sessionKey {
	return sessionKey{companyID: strings.TrimSpace(companyID), sessionID: strings.TrimSpace(sessionID)}
}

// checkout はセッションの参照を一つ増やして返します。
// 新しいセッションを作るときに、誰も参照しておらず sessionTTL を過ぎたセッションを取り除きます。
func (o *Orchestrator) checkout(key sessionKey) *session {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock.Now()
	s, ok := o.sessions[key]
	if !ok {
		for k, idle := range o.sessions {
			if idle.refs == 0 && now.Sub(idle.lastAccess) > o.sessionTTL {
				delete(o.sessions, k)
			}
		}
		s = &session{sem: make(chan struct{}, 1)}
		o.sessions[key] = s
	}
	s.refs++
	s.lastAccess = now
	return s
}

// checkin は参照を一つ減らします。drop が真で他に参照がなければセッションを取り除きます。
func (o *Orchestrator) checkin(key sessionKey, s *session, drop bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s.refs--
	s.lastAccess = o.clock.Now()
	if drop && s.refs == 0 && o.sessions[key] == s {
		delete(o.sessions, key)
	}
}

// leave は sem を解放してから参照を返します。保留中の呼び出しがなければセッションは残しません。
func (o *Orchestrator) leave(key sessionKey, s *session) {
	idle := s.pending == nil
	s.release()
	o.checkin(key, s, idle)
}

func (o *Orchestrator) record(ctx context.Context, key sessionKey, sender conversation.Sender, text string) {
	if o.conversation == nil || strings.TrimSpace(text) == "" {
		return
	}
	if _, err := o.conversation.Append(ctx, key.companyID, key.sessionID, sender, text); err != nil {
		o.logger.WarnContext(ctx, "failed to append conversation message",
			slog.String("company_id", key.companyID),
			slog.String("session_id", key.sessionID),
			slog.String("sender", string(sender)),
			slog.Any("error", err))
	}
}

func (o *Orchestrator) finish(ctx context.Context, t *turn, started time.Time) {
	elapsed := o.clock.Now().Sub(started)
	o.metrics.ObserveTurn(string(t.resp.Outcome), elapsed)
	o.logger.DebugContext(ctx, "turn finished",
		slog.String("session_id", t.resp.SessionID),
		slog.String("tool", t.resp.Tool),
		slog.String("outcome", string(t.resp.Outcome)),
		slog.Duration("elapsed", elapsed))
}

func (o *Orchestrator) observeRejection(err error) {
	var v *schedule.Violation
	if errors.As(err, &v) {
		o.metrics.ObserveRejection(string(v.Rule))
	}
	var spanErr *schedule.SpanError
	if errors.As(err, &spanErr) {
		o.metrics.ObserveRejection("max_request_span")
	}
}

func (o *Orchestrator) logFailure(ctx context.Context, name string, err error) {
	if tool.Classify(err) == tool.KindInternal {
		o.logger.ErrorContext(ctx, "tool failed", slog.String("tool", name), slog.Any("error", err))
		return
	}
	o.logger.DebugContext(ctx, "tool rejected", slog.String("tool", name), slog.Any("error", err))
}

func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type turn struct {
	resp *Response
}

func (t *turn) enter(state State) {
	t.resp.State = state
	t.resp.Trace = append(t.resp.Trace, state)
}

func (t *turn) respond(outcome Outcome, kind tool.Kind, message string) {
	t.enter(StateResponding)
	t.resp.Outcome = outcome
	t.resp.Kind = kind
	t.resp.Message = message
}

func (t *turn) abort(error) {
	t.enter(StateAborted)
	t.resp.Outcome = OutcomeAborted
	t.resp.ClarificationNeeded = false
	t.resp.MissingParameter = ""
	t.resp.Message = abortedMessage()
}
