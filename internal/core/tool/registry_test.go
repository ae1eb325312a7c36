package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
)

func echoTool(name string, params ...Param) Tool {
	return Tool{
		Name:   name,
		Params: params,
		Handler: func(_ context.Context, args Args) (*Result, error) {
			return &Result{Summary: fmt.Sprintf("%s called with %d args", name, len(args))}, nil
		},
	}
}

func TestRegistry_InvokeReportsFirstMissingParameter(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(echoTool("create-assignment",
		required("employeeId", TypeString, "employee"),
		required("projectId", TypeString, "project"),
		required("date", TypeDate, "date"),
	))
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	_, err = reg.Invoke(context.Background(), "create-assignment", Args{"employeeId": "e1", "date": "  "})
	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingParameterError, got %v", err)
	}
	if missing.Param != "projectId" || missing.Tool != "create-assignment" {
		t.Fatalf("expected projectId to be reported, got %+v", missing)
	}
	if !errors.Is(err, ErrMissingParameter) || Classify(err) != KindMissingParameter {
		t.Fatalf("expected missing parameter classification, got %s", Classify(err))
	}

	result, err := reg.Invoke(context.Background(), "create-assignment", Args{"employeeId": "e1", "projectId": "p1", "date": "2024-03-04"})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if result.Summary == "" {
		t.Fatalf("expected handler result")
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(echoTool("is-weekend"))
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	_, err = reg.Invoke(context.Background(), "launch-rocket", nil)
	if !errors.Is(err, ErrUnknownTool) || Classify(err) != KindUnsupported {
		t.Fatalf("expected unsupported, got %v", err)
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(echoTool("a"), echoTool("a")); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if _, err := NewRegistry(Tool{Name: "no-handler"}); err == nil {
		t.Fatalf("expected missing handler to fail")
	}
}

func TestRegistry_CheckRunsValidateAfterMissing(t *testing.T) {
	t.Parallel()

	validated := 0
	tool := echoTool("fill-gaps", required("employeeId", TypeString, "employee"))
	tool.Validate = func(context.Context, Args) error {
		validated++
		return schedule.ErrSpanTooLong
	}
	reg, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	if err := reg.Check(context.Background(), "fill-gaps", Args{}); !errors.Is(err, ErrMissingParameter) || validated != 0 {
		t.Fatalf("expected missing parameter before validation, got %v (validated=%d)", err, validated)
	}
	if err := reg.Check(context.Background(), "fill-gaps", Args{"employeeId": "e1"}); Classify(err) != KindInvalidRange {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestRegistry_InvokeHonoursCancellation(t *testing.T) {
	t.Parallel()

	called := false
	tool := echoTool("delete-assignment")
	tool.Handler = func(context.Context, Args) (*Result, error) {
		called = true
		return &Result{}, nil
	}
	reg, err := NewRegistry(tool)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := reg.Invoke(ctx, "delete-assignment", nil); !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected canceled invocation without running the handler")
	}
}

func TestArgs_MergeAndAccessors(t *testing.T) {
	t.Parallel()

	pending := Args{"employeeId": "e1", "projectId": "p1"}
	merged := pending.Merge(Args{"projectId": "", "date": "2024-03-04", "worksRemotely": "true", "days": float64(3)})

	if merged["projectId"] != "p1" {
		t.Fatalf("blank values must not overwrite, got %v", merged["projectId"])
	}
	if _, ok := pending["date"]; ok {
		t.Fatalf("Merge must not modify the receiver")
	}

	d, err := merged.Date("date")
	if err != nil || calendar.Format(d) != "2024-03-04" {
		t.Fatalf("unexpected date %v (%v)", d, err)
	}
	remote, err := merged.OptionalBool("worksRemotely")
	if err != nil || remote == nil || !*remote {
		t.Fatalf("expected true, got %v (%v)", remote, err)
	}
	days, err := merged.Int("days")
	if err != nil || days != 3 {
		t.Fatalf("expected 3, got %d (%v)", days, err)
	}

	if _, err := (Args{"date": "04.03.2024"}).Date("date"); Classify(err) != KindInvalidArgument {
		t.Fatalf("expected invalid argument for bad date, got %v", err)
	}
	if _, err := (Args{"days": 1.5}).Int("days"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for fraction, got %v", err)
	}
	if _, err := (Args{"worksRemotely": "maybe"}).OptionalBool("worksRemotely"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for non-boolean, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	batch := schedule.ValidateBatch(schedule.Facts{}, []schedule.Candidate{{EmployeeID: "ghost"}})

	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{fmt.Errorf("wrapped: %w", project.ErrNameAlreadyExists), KindConflict},
		{schedule.ErrWeekend, KindWeekend},
		{schedule.ErrLocationMismatch, KindLocationMismatch},
		{&schedule.SpanError{Days: 10}, KindInvalidRange},
		{calendar.ErrNegativeDayCount, KindInvalidRange},
		{fmt.Errorf("days: %w", calendar.ErrDayCountTooLarge), KindInvalidArgument},
		{batch, KindNotFound},
		{errors.New("connection reset"), KindInternal},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestCompanyIDContext(t *testing.T) {
	t.Parallel()

	if got := CompanyIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty company id, got %q", got)
	}
	ctx := WithCompanyID(context.Background(), " company-1 ")
	if got := CompanyIDFromContext(ctx); got != "company-1" {
		t.Fatalf("expected company-1, got %q", got)
	}
}
