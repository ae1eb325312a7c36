package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	pgdb "github.com/ogurasousui/planner-assistant/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

const employeeColumns = `id, company_id, name, surname, email, language, works_remotely, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (company_id, name, surname, email, language, works_remotely, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+employeeColumns,
		e.CompanyID,
		e.Name,
		e.Surname,
		e.Email,
		string(e.Language),
		e.WorksRemotely,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET name = $1,
               surname = $2,
               email = $3,
               language = $4,
               works_remotely = $5,
               updated_at = $6
         WHERE id = $7
        RETURNING `+employeeColumns,
		e.Name,
		e.Surname,
		e.Email,
		string(e.Language),
		e.WorksRemotely,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員の一覧を登録順に取得します。氏名は大文字小文字を区別せずに比較します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, error) {
	if strings.TrimSpace(filter.CompanyID) == "" {
		return nil, employee.ErrInvalidCompanyID
	}

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 4)

	args = append(args, filter.CompanyID)
	conditions = append(conditions, "company_id = $"+strconv.Itoa(len(args)))

	if filter.Name != nil {
		args = append(args, *filter.Name)
		conditions = append(conditions, "lower(name) = lower($"+strconv.Itoa(len(args))+")")
	}
	if filter.Surname != nil {
		args = append(args, *filter.Surname)
		conditions = append(conditions, "lower(surname) = lower($"+strconv.Itoa(len(args))+")")
	}
	if filter.WorksRemotely != nil {
		args = append(args, *filter.WorksRemotely)
		conditions = append(conditions, "works_remotely = $"+strconv.Itoa(len(args)))
	}

	query := `
        SELECT ` + employeeColumns + `
          FROM employees
         WHERE ` + strings.Join(conditions, " AND ") + `
         ORDER BY created_at, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return employees, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e         employee.Employee
		language  string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(
		&e.ID,
		&e.CompanyID,
		&e.Name,
		&e.Surname,
		&e.Email,
		&language,
		&e.WorksRemotely,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.Language = employee.Language(language)
	e.CreatedAt = createdAt.UTC()
	e.UpdatedAt = updatedAt.UTC()
	return &e, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case checkViolationCode:
			return employee.ErrInvalidLanguage
		}
	}

	return err
}
