package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
)

var (
	// ErrUnknownEmployee は候補の社員が存在しない場合に返却されます。
	ErrUnknownEmployee = errors.New("schedule: employee does not exist")
	// ErrUnknownProject は候補のプロジェクトが存在しない場合に返却されます。
	ErrUnknownProject = errors.New("schedule: project does not exist")
	// ErrWeekend は土日へのアサインを拒否する場合に返却されます。
	ErrWeekend = errors.New("schedule: date falls on a weekend")
	// ErrDoubleBooked は同じ社員・同じ日に別のアサインが存在する場合に返却されます。
	ErrDoubleBooked = errors.New("schedule: employee already assigned on date")
	// ErrLocationMismatch はリモート社員をオンサイト必須プロジェクトへ割り当てようとした場合に返却されます。
	ErrLocationMismatch = errors.New("schedule: remote employee cannot work on an on-premises project")
	// ErrSpanTooLong はリクエストの期間が上限日数を超える場合に返却されます。
	ErrSpanTooLong = errors.New("schedule: request spans more than 7 days")
	// ErrNoEligibleProject は割り当て可能なプロジェクトが一つもない場合に返却されます。
	ErrNoEligibleProject = errors.New("schedule: no eligible project")
	// ErrEmptyBatch は候補が一件もない場合に返却されます。
	ErrEmptyBatch = errors.New("schedule: no candidates given")
)

// Conflict は二重アサインの相手を表します。
// 既存のアサインと衝突した場合は Booking が、同じバッチ内の先行候補と衝突した場合は BatchIndex (0 以上) が設定されます。
type Conflict struct {
	Booking    *Booking
	BatchIndex int
}

// Violation は候補一件に対して最初に失敗したルールです。
type Violation struct {
	Rule      Rule
	Index     int
	Candidate Candidate
	Conflict  *Conflict
	err       error
}

func (v *Violation) Error() string {
	return fmt.Sprintf("candidate %d (employee %s, project %s, %s): %v",
		v.Index, v.Candidate.EmployeeID, v.Candidate.ProjectID, calendar.Format(v.Candidate.Date), v.err)
}

func (v *Violation) Unwrap() error {
	return v.err
}

// BatchError はバッチ内で拒否された候補をすべて保持します。
type BatchError struct {
	Violations []*Violation
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}
	return fmt.Sprintf("schedule: %d candidate(s) rejected: %s", len(e.Violations), strings.Join(parts, "; "))
}

// Unwrap は errors.Is / errors.As が各違反を辿れるようにします。
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations))
	for _, v := range e.Violations {
		errs = append(errs, v)
	}
	return errs
}

// SpanError はリクエスト期間が上限を超えたことを表します。
type SpanError struct {
	From time.Time
	To   time.Time
	Days int
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("%s to %s covers %d days: %v", calendar.Format(e.From), calendar.Format(e.To), e.Days, ErrSpanTooLong)
}

func (e *SpanError) Unwrap() error {
	return ErrSpanTooLong
}
