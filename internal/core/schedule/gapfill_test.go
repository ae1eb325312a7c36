package schedule

import (
	"errors"
	"slices"
	"testing"

	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
)

var (
	remoteEmployee = &employee.Employee{ID: "e1", WorksRemotely: true}
	p1             = &project.Project{ID: "p1"}
	p2             = &project.Project{ID: "p2"}
	p3             = &project.Project{ID: "p3"}
	onsite         = &project.Project{ID: "a-onsite", MustBeOnPremises: true}
)

func projectIDs(picks []Pick) []string {
	ids := make([]string, 0, len(picks))
	for _, p := range picks {
		ids = append(ids, p.Candidate.ProjectID)
	}
	return ids
}

func pickDates(picks []Pick) []string {
	dates := make([]string, 0, len(picks))
	for _, p := range picks {
		dates = append(dates, calendar.Format(p.Candidate.Date))
	}
	return dates
}

func TestFillGaps_MostUsedThisWeek(t *testing.T) {
	t.Parallel()

	picks, err := FillGaps(GapFillRequest{
		Employee: remoteEmployee,
		From:     day(2024, 3, 4),
		To:       day(2024, 3, 8),
		Projects: []*project.Project{p2, p1, onsite},
		History: []Booking{
			{ID: "a1", EmployeeID: "e1", ProjectID: "p1", Date: day(2024, 3, 4)},
			{ID: "a2", EmployeeID: "e1", ProjectID: "p1", Date: day(2024, 3, 5)},
		},
	})
	if err != nil {
		t.Fatalf("FillGaps returned error: %v", err)
	}

	if got := pickDates(picks); !slices.Equal(got, []string{"2024-03-06", "2024-03-07", "2024-03-08"}) {
		t.Fatalf("unexpected gap days: %v", got)
	}
	if got := projectIDs(picks); !slices.Equal(got, []string{"p1", "p1", "p1"}) {
		t.Fatalf("expected p1 for every gap, got %v", got)
	}
	for _, p := range picks {
		if p.Basis != BasisCurrentWeek {
			t.Fatalf("expected current week basis, got %s", p.Basis)
		}
	}
}

func TestFillGaps_FallsBackToPreviousWeek(t *testing.T) {
	t.Parallel()

	picks, err := FillGaps(GapFillRequest{
		Employee: remoteEmployee,
		From:     day(2024, 3, 4),
		To:       day(2024, 3, 8),
		Projects: []*project.Project{p1, p2},
		History: []Booking{
			{ID: "a1", EmployeeID: "e1", ProjectID: "p2", Date: day(2024, 2, 26)},
			{ID: "a2", EmployeeID: "e1", ProjectID: "p2", Date: day(2024, 2, 27)},
			{ID: "a3", EmployeeID: "e1", ProjectID: "p2", Date: day(2024, 2, 28)},
			{ID: "a4", EmployeeID: "e1", ProjectID: "p1", Date: day(2024, 2, 29)},
		},
	})
	if err != nil {
		t.Fatalf("FillGaps returned error: %v", err)
	}

	if got := projectIDs(picks); !slices.Equal(got, []string{"p2", "p2", "p2", "p2", "p2"}) {
		t.Fatalf("expected p2 for every weekday, got %v", got)
	}
	if picks[0].Basis != BasisPreviousWeek {
		t.Fatalf("expected previous week basis, got %s", picks[0].Basis)
	}
}

func TestFillGaps_FallbackIsStableAndSkipsIneligible(t *testing.T) {
	t.Parallel()

	// 週の途中から始まり翌週にまたがる期間。履歴がないため最小 ID の適合プロジェクトを使い続ける。
	picks, err := FillGaps(GapFillRequest{
		Employee: remoteEmployee,
		From:     day(2024, 3, 7),
		To:       day(2024, 3, 13),
		Projects: []*project.Project{p3, onsite, p2},
	})
	if err != nil {
		t.Fatalf("FillGaps returned error: %v", err)
	}

	if got := pickDates(picks); !slices.Equal(got, []string{"2024-03-07", "2024-03-08", "2024-03-11", "2024-03-12", "2024-03-13"}) {
		t.Fatalf("expected weekdays only, got %v", got)
	}
	if got := projectIDs(picks); !slices.Equal(got, []string{"p2", "p2", "p2", "p2", "p2"}) {
		t.Fatalf("expected stable fallback p2, got %v", got)
	}
}

func TestFillGaps_TieBreakByFirstAssignmentThenID(t *testing.T) {
	t.Parallel()

	picks, err := FillGaps(GapFillRequest{
		Employee: remoteEmployee,
		From:     day(2024, 3, 6),
		To:       day(2024, 3, 6),
		Projects: []*project.Project{p1, p2, p3},
		History: []Booking{
			{ID: "old", EmployeeID: "e1", ProjectID: "p3", Date: day(2024, 2, 20)},
			{ID: "a1", EmployeeID: "e1", ProjectID: "p1", Date: day(2024, 3, 4)},
			{ID: "a2", EmployeeID: "e1", ProjectID: "p3", Date: day(2024, 3, 5)},
		},
	})
	if err != nil {
		t.Fatalf("FillGaps returned error: %v", err)
	}
	if got := projectIDs(picks); !slices.Equal(got, []string{"p3"}) {
		t.Fatalf("expected p3 (earliest first assignment), got %v", got)
	}
}

func TestFillGaps_Deterministic(t *testing.T) {
	t.Parallel()

	req := GapFillRequest{
		Employee: remoteEmployee,
		From:     day(2024, 3, 4),
		To:       day(2024, 3, 10),
		Projects: []*project.Project{p3, p1, p2},
		History: []Booking{
			{ID: "a1", EmployeeID: "e1", ProjectID: "p2", Date: day(2024, 3, 5)},
			{ID: "a2", EmployeeID: "e1", ProjectID: "p1", Date: day(2024, 3, 6)},
		},
	}

	first, err := FillGaps(req)
	if err != nil {
		t.Fatalf("FillGaps returned error: %v", err)
	}
	for range 5 {
		again, err := FillGaps(req)
		if err != nil {
			t.Fatalf("FillGaps returned error: %v", err)
		}
		if !slices.Equal(projectIDs(first), projectIDs(again)) || !slices.Equal(pickDates(first), pickDates(again)) {
			t.Fatalf("non-deterministic result: %v vs %v", projectIDs(first), projectIDs(again))
		}
	}
}

func TestFillGaps_Errors(t *testing.T) {
	t.Parallel()

	_, err := FillGaps(GapFillRequest{Employee: remoteEmployee, From: day(2024, 1, 1), To: day(2024, 1, 10), Projects: []*project.Project{p1}})
	if !errors.Is(err, ErrSpanTooLong) {
		t.Fatalf("expected ErrSpanTooLong, got %v", err)
	}

	_, err = FillGaps(GapFillRequest{Employee: remoteEmployee, From: day(2024, 3, 4), To: day(2024, 3, 4), Projects: []*project.Project{onsite}})
	if !errors.Is(err, ErrNoEligibleProject) {
		t.Fatalf("expected ErrNoEligibleProject, got %v", err)
	}

	picks, err := FillGaps(GapFillRequest{Employee: remoteEmployee, From: day(2024, 3, 9), To: day(2024, 3, 10), Projects: []*project.Project{onsite}})
	if err != nil || len(picks) != 0 {
		t.Fatalf("expected no picks for a weekend-only range, got %v (%v)", picks, err)
	}
}

func TestLookbackWindow(t *testing.T) {
	t.Parallel()

	if got := calendar.Format(LookbackStart(day(2024, 3, 6))); got != "2024-02-26" {
		t.Fatalf("unexpected lookback start %s", got)
	}
	if got := calendar.Format(LookbackEnd(day(2024, 3, 6))); got != "2024-03-10" {
		t.Fatalf("unexpected lookback end %s", got)
	}
}
