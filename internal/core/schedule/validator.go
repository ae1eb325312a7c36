// Package schedule はアサインの業務ルール検証と空き日の自動補完を行う純粋関数群です。
// 永続化には触れず、呼び出し側が集めた Facts だけを見て判定します。
package schedule

import (
	"fmt"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
)

// MaxRequestDays は 1 リクエストで扱える最大暦日数です。
const MaxRequestDays = 7

// Rule は検証ルールの識別子です。
type Rule string

const (
	RuleReferentialIntegrity Rule = "referential_integrity"
	RuleNoWeekend            Rule = "no_weekend"
	RuleNoDoubleBooking      Rule = "no_double_booking"
	RuleLocation             Rule = "location_compatibility"
)

// Rules は評価順に並んだルール一覧です。
var Rules = []Rule{RuleReferentialIntegrity, RuleNoWeekend, RuleNoDoubleBooking, RuleLocation}

// Candidate はこれから作成 (または置換) するアサインです。
// ReplacesID が設定されている場合、そのアサインは二重アサインの判定から除外されます。
type Candidate struct {
	EmployeeID string
	ProjectID  string
	Date       time.Time
	ReplacesID string
}

// Booking は既存のアサインです。
type Booking struct {
	ID         string
	EmployeeID string
	ProjectID  string
	Date       time.Time
}

// Facts は検証に必要な既存データです。
// Bookings には候補の社員・日付に関係する既存アサインが含まれている必要があります。
type Facts struct {
	Employees map[string]*employee.Employee
	Projects  map[string]*project.Project
	Bookings  []Booking
}

// Compatible はリモート勤務の社員とオンサイト必須プロジェクトの組み合わせ以外を許可します。
func Compatible(emp *employee.Employee, p *project.Project) bool {
	return !(emp.WorksRemotely && p.MustBeOnPremises)
}

// CheckRequestSpan はリクエスト形状のルールを検証します。日単位の検証より前に呼び出します。
func CheckRequestSpan(from, to time.Time) error {
	days, err := calendar.SpanDays(from, to)
	if err != nil {
		return err
	}
	if days > MaxRequestDays {
		return &SpanError{From: calendar.Normalize(from), To: calendar.Normalize(to), Days: days}
	}
	return nil
}

// CandidatesSpan は候補の最小日付と最大日付を返します。
func CandidatesSpan(candidates []Candidate) (time.Time, time.Time, error) {
	if len(candidates) == 0 {
		return time.Time{}, time.Time{}, ErrEmptyBatch
	}
	from := calendar.Normalize(candidates[0].Date)
	to := from
	for _, c := range candidates[1:] {
		d := calendar.Normalize(c.Date)
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	return from, to, nil
}

// Validate は候補一件を検証し、最初に失敗したルールを *Violation として返します。
func Validate(facts Facts, candidate Candidate) error {
	err := ValidateBatch(facts, []Candidate{candidate})
	if batchErr, ok := err.(*BatchError); ok {
		return batchErr.Violations[0]
	}
	return err
}

// ValidateBatch は候補を入力順に検証します。
// 先に通過した候補は後続候補にとって既存アサインと同様に扱われます。
// 一件でも違反があれば *BatchError を返し、バッチ全体を不成立とします。
func ValidateBatch(facts Facts, candidates []Candidate) error {
	if len(candidates) == 0 {
		return ErrEmptyBatch
	}

	replaced := make(map[string]struct{})
	for _, c := range candidates {
		if c.ReplacesID != "" {
			replaced[c.ReplacesID] = struct{}{}
		}
	}

	existing := make(map[slotKey]*Booking, len(facts.Bookings))
	for i := range facts.Bookings {
		b := &facts.Bookings[i]
		if _, ok := replaced[b.ID]; ok {
			continue
		}
		existing[keyOf(b.EmployeeID, b.Date)] = b
	}

	accepted := make(map[slotKey]int, len(candidates))
	var violations []*Violation

	for i, c := range candidates {
		c.Date = calendar.Normalize(c.Date)
		if v := evaluate(facts, existing, accepted, i, c); v != nil {
			violations = append(violations, v)
			continue
		}
		accepted[keyOf(c.EmployeeID, c.Date)] = i
	}

	if len(violations) > 0 {
		return &BatchError{Violations: violations}
	}
	return nil
}

func evaluate(facts Facts, existing map[slotKey]*Booking, accepted map[slotKey]int, index int, c Candidate) *Violation {
	violation := func(rule Rule, err error, conflict *Conflict) *Violation {
		return &Violation{Rule: rule, Index: index, Candidate: c, Conflict: conflict, err: err}
	}

	emp, ok := facts.Employees[c.EmployeeID]
	if !ok || emp == nil {
		return violation(RuleReferentialIntegrity, fmt.Errorf("employee %q: %w", c.EmployeeID, ErrUnknownEmployee), nil)
	}
	proj, ok := facts.Projects[c.ProjectID]
	if !ok || proj == nil {
		return violation(RuleReferentialIntegrity, fmt.Errorf("project %q: %w", c.ProjectID, ErrUnknownProject), nil)
	}

	if calendar.IsWeekend(c.Date) {
		return violation(RuleNoWeekend, ErrWeekend, nil)
	}

	key := keyOf(c.EmployeeID, c.Date)
	if b, ok := existing[key]; ok {
		return violation(RuleNoDoubleBooking, ErrDoubleBooked, &Conflict{Booking: b, BatchIndex: -1})
	}
	if prev, ok := accepted[key]; ok {
		return violation(RuleNoDoubleBooking, ErrDoubleBooked, &Conflict{BatchIndex: prev})
	}

	if !Compatible(emp, proj) {
		return violation(RuleLocation, ErrLocationMismatch, nil)
	}

	return nil
}

type slotKey struct {
	employeeID string
	date       string
}

func keyOf(employeeID string, date time.Time) slotKey {
	return slotKey{employeeID: employeeID, date: calendar.Format(calendar.Normalize(date))}
}
