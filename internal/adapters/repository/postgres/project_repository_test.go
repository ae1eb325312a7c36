package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var projectRowColumns = []string{"id", "company_id", "name", "color", "must_be_on_premises", "created_at", "updated_at"}

func TestScanProject_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}
	if _, err := scanProject(row); !errors.Is(err, project.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestTranslateProjectPgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translateProjectPgError(&pgconn.PgError{Code: uniqueViolationCode}), project.ErrNameAlreadyExists) {
		t.Fatalf("expected unique violation to map to ErrNameAlreadyExists")
	}
	if !errors.Is(translateProjectPgError(&pgconn.PgError{Code: checkViolationCode}), project.ErrInvalidColor) {
		t.Fatalf("expected check violation to map to ErrInvalidColor")
	}
}

func TestProjectRepository_CreateDuplicateName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewProjectRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO projects (company_id, name, color, must_be_on_premises, created_at, updated_at)`)).
		WithArgs("company-1", "Apollo", "#3F51B5", false, now, now).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "projects_company_lower_name_key"})

	_, err = repo.Create(context.Background(), &project.Project{
		CompanyID: "company-1",
		Name:      "Apollo",
		Color:     "#3F51B5",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if !errors.Is(err, project.ErrNameAlreadyExists) {
		t.Fatalf("expected ErrNameAlreadyExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProjectRepository_FindByCompanyAndName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewProjectRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE company_id = $1 AND lower(name) = lower($2)`)).
		WithArgs("company-1", "apollo").
		WillReturnRows(pgxmock.NewRows(projectRowColumns).
			AddRow("proj-1", "company-1", "Apollo", "#FF0000", true, now, now))

	found, err := repo.FindByCompanyAndName(context.Background(), "company-1", "apollo")
	if err != nil {
		t.Fatalf("FindByCompanyAndName returned error: %v", err)
	}
	if found.ID != "proj-1" || !found.MustBeOnPremises {
		t.Fatalf("unexpected project: %+v", found)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProjectRepository_ListOnPremisesOnly(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewProjectRepository(mock)
	onPremises := true
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE company_id = $1 AND must_be_on_premises = $2`)).
		WithArgs("company-1", onPremises).
		WillReturnRows(pgxmock.NewRows(projectRowColumns).
			AddRow("proj-1", "company-1", "Onsite", "#FF0000", true, now, now))

	projects, err := repo.List(context.Background(), project.ListProjectsFilter{CompanyID: "company-1", MustBeOnPremises: &onPremises})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
