package migration

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestSourceURL(t *testing.T) {
	t.Parallel()

	got, err := SourceURL("assets/migrations")
	if err != nil {
		t.Fatalf("SourceURL returned error: %v", err)
	}
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "assets/migrations") {
		t.Fatalf("unexpected source url %q", got)
	}
}

func TestIgnoreNoChange(t *testing.T) {
	t.Parallel()

	if err := ignoreNoChange(migrate.ErrNoChange); err != nil {
		t.Fatalf("expected ErrNoChange to be ignored, got %v", err)
	}
	boom := errors.New("boom")
	if err := ignoreNoChange(boom); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunner_RunRejectsUnknownAction(t *testing.T) {
	t.Parallel()

	r := &Runner{}
	for _, tc := range []struct {
		action string
		args   []string
	}{
		{"sideways", nil},
		{"steps", nil},
		{"steps", []string{"zero"}},
		{"steps", []string{"0"}},
	} {
		if err := r.Run(tc.action, tc.args...); !errors.Is(err, ErrUnsupportedAction) {
			t.Errorf("Run(%q, %v) = %v, want ErrUnsupportedAction", tc.action, tc.args, err)
		}
	}
}
