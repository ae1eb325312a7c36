package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

var employeeRowColumns = []string{"id", "company_id", "name", "surname", "email", "language", "works_remotely", "created_at", "updated_at"}

func TestScanEmployee_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	if _, err := scanEmployee(row); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestTranslateEmployeePgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translateEmployeePgError(&pgconn.PgError{Code: checkViolationCode}), employee.ErrInvalidLanguage) {
		t.Fatalf("expected check violation to map to ErrInvalidLanguage")
	}

	otherErr := errors.New("random")
	if translateEmployeePgError(otherErr) != otherErr {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestEmployeeRepository_Create(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO employees (company_id, name, surname, email, language, works_remotely, created_at, updated_at)`)).
		WithArgs("company-1", "Anna", "Muster", "anna@example.com", "de", true, now, now).
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow("emp-1", "company-1", "Anna", "Muster", "anna@example.com", "de", true, now, now))

	created, err := repo.Create(context.Background(), &employee.Employee{
		CompanyID:     "company-1",
		Name:          "Anna",
		Surname:       "Muster",
		Email:         "anna@example.com",
		Language:      employee.LanguageDE,
		WorksRemotely: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "emp-1" || created.Language != employee.LanguageDE || !created.WorksRemotely {
		t.Fatalf("unexpected employee: %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_DeleteNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_ListWithFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)
	name := "anna"
	remote := false
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE company_id = $1 AND lower(name) = lower($2) AND works_remotely = $3`)).
		WithArgs("company-1", name, remote).
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow("emp-1", "company-1", "Anna", "Muster", "anna@example.com", "en", false, now, now).
			AddRow("emp-2", "company-1", "ANNA", "Other", "other@example.com", "fr", false, now, now))

	employees, err := repo.List(context.Background(), employee.ListEmployeesFilter{
		CompanyID:     "company-1",
		Name:          &name,
		WorksRemotely: &remote,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(employees) != 2 || employees[1].Language != employee.LanguageFR {
		t.Fatalf("unexpected employees: %+v", employees)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_ListRequiresCompany(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)
	if _, err := repo.List(context.Background(), employee.ListEmployeesFilter{}); !errors.Is(err, employee.ErrInvalidCompanyID) {
		t.Fatalf("expected ErrInvalidCompanyID, got %v", err)
	}
}
