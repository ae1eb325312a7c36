// Package assistant はアシスタントの 1 ターン分の処理を状態機械として進めます。
// 自然言語の解釈は外部に任せ、ここでは解釈済みの意図 (ツール名と引数) だけを扱います。
package assistant

import (
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/tool"
)

// State はターン内の状態です。
type State string

const (
	StateAwaitingIntent      State = "awaiting_intent"
	StateResolvingParameters State = "resolving_parameters"
	StateValidating          State = "validating"
	StateExecuting           State = "executing"
	StateResponding          State = "responding"
	StateAborted             State = "aborted"
)

// Outcome はターンの結果です。
type Outcome string

const (
	OutcomeExecuted      Outcome = "executed"
	OutcomeClarification Outcome = "clarification"
	OutcomeRejected      Outcome = "rejected"
	OutcomeFailed        Outcome = "failed"
	OutcomeUnsupported   Outcome = "unsupported"
	OutcomeAborted       Outcome = "aborted"
)

// Intent は外部の意図抽出が返す結果です。Tool が空の場合は「ツールなし」を表します。
type Intent struct {
	Tool   string
	Params tool.Args
}

// TurnRequest は 1 ターン分の入力です。
type TurnRequest struct {
	SessionID string
	CompanyID string
	Message   string
	Intent    *Intent
}

// PendingToolCall は引数がそろうまでセッションに保持されるツール呼び出しです。
type PendingToolCall struct {
	Tool      string
	Resolved  tool.Args
	Missing   []string
	CreatedAt time.Time
}

func (p *PendingToolCall) clone() *PendingToolCall {
	if p == nil {
		return nil
	}
	copy := *p
	copy.Resolved = tool.Args{}.Merge(p.Resolved)
	copy.Missing = append([]string(nil), p.Missing...)
	return &copy
}

// Response はターンの結果です。
type Response struct {
	SessionID           string
	State               State
	Outcome             Outcome
	Kind                tool.Kind
	Tool                string
	ClarificationNeeded bool
	MissingParameter    string
	Message             string
	AffectedRecords     []map[string]any
	Data                map[string]any
	Trace               []State
}
