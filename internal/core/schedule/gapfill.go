package schedule

import (
	"slices"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
)

// Basis は空き日に選んだプロジェクトの根拠です。
type Basis string

const (
	BasisCurrentWeek  Basis = "current_week"
	BasisPreviousWeek Basis = "previous_week"
	BasisFallback     Basis = "fallback"
)

// GapFillRequest は空き日補完の入力です。
// History には社員の既存アサインのうち、From の前週の月曜日から To を含む週の日曜日までが含まれている必要があります。
type GapFillRequest struct {
	Employee *employee.Employee
	From     time.Time
	To       time.Time
	Projects []*project.Project
	History  []Booking
}

// Pick は空き日一件に対する選択結果です。
type Pick struct {
	Candidate Candidate
	Basis     Basis
}

// LookbackStart は補完に必要な履歴の開始日 (From の前週の月曜日) を返します。
func LookbackStart(from time.Time) time.Time {
	monday, _ := calendar.WeekBounds(from)
	return monday.AddDate(0, 0, -7)
}

// LookbackEnd は補完に必要な履歴の終了日 (To を含む週の日曜日) を返します。
func LookbackEnd(to time.Time) time.Time {
	_, sunday := calendar.WeekBounds(to)
	return sunday
}

// FillGaps は期間内の平日のうちアサインのない日へプロジェクトを選びます。
//
// 選択の優先順位:
//  1. 空き日を含む週で最も多く割り当てられた適合プロジェクト
//  2. その前週で最も多く割り当てられた適合プロジェクト
//  3. 適合プロジェクトのうち ID が最小のもの (同一リクエスト内では同じものを使い続ける)
//
// 件数が同じ場合は最初に割り当てられた日が早い方、さらに同じなら ID の小さい方を選びます。
// 件数は既存のアサインのみで数え、このリクエストで選んだ分は含めません。
func FillGaps(req GapFillRequest) ([]Pick, error) {
	if err := CheckRequestSpan(req.From, req.To); err != nil {
		return nil, err
	}
	if req.Employee == nil {
		return nil, ErrUnknownEmployee
	}

	eligible := make(map[string]struct{}, len(req.Projects))
	var eligibleIDs []string
	for _, p := range req.Projects {
		if p == nil || !Compatible(req.Employee, p) {
			continue
		}
		eligible[p.ID] = struct{}{}
		eligibleIDs = append(eligibleIDs, p.ID)
	}
	slices.Sort(eligibleIDs)

	history := make([]Booking, 0, len(req.History))
	booked := make(map[string]struct{}, len(req.History))
	firstSeen := make(map[string]time.Time)
	for _, b := range req.History {
		if b.EmployeeID != req.Employee.ID {
			continue
		}
		b.Date = calendar.Normalize(b.Date)
		history = append(history, b)
		booked[calendar.Format(b.Date)] = struct{}{}
		if seen, ok := firstSeen[b.ProjectID]; !ok || b.Date.Before(seen) {
			firstSeen[b.ProjectID] = b.Date
		}
	}

	days, err := calendar.Days(req.From, req.To)
	if err != nil {
		return nil, err
	}

	var (
		picks    []Pick
		fallback string
	)
	for _, day := range days {
		if calendar.IsWeekend(day) {
			continue
		}
		if _, ok := booked[calendar.Format(day)]; ok {
			continue
		}

		if len(eligibleIDs) == 0 {
			return nil, ErrNoEligibleProject
		}

		monday, sunday := calendar.WeekBounds(day)
		basis := BasisCurrentWeek
		projectID := mostUsed(history, eligible, firstSeen, monday, sunday)
		if projectID == "" {
			basis = BasisPreviousWeek
			projectID = mostUsed(history, eligible, firstSeen, monday.AddDate(0, 0, -7), monday.AddDate(0, 0, -1))
		}
		if projectID == "" {
			if fallback == "" {
				fallback = eligibleIDs[0]
			}
			basis = BasisFallback
			projectID = fallback
		}

		picks = append(picks, Pick{
			Candidate: Candidate{EmployeeID: req.Employee.ID, ProjectID: projectID, Date: day},
			Basis:     basis,
		})
	}

	return picks, nil
}

func mostUsed(history []Booking, eligible map[string]struct{}, firstSeen map[string]time.Time, start, end time.Time) string {
	counts := make(map[string]int)
	for _, b := range history {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		if _, ok := eligible[b.ProjectID]; !ok {
			continue
		}
		counts[b.ProjectID]++
	}

	best := ""
	for id, n := range counts {
		if best == "" || better(id, n, best, counts[best], firstSeen) {
			best = id
		}
	}
	return best
}

func better(id string, n int, best string, bestN int, firstSeen map[string]time.Time) bool {
	if n != bestN {
		return n > bestN
	}
	a, b := firstSeen[id], firstSeen[best]
	if !a.Equal(b) {
		return a.Before(b)
	}
	return id < best
}
