package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/planner-assistant/internal/core/assignment"
	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
	pgdb "github.com/ogurasousui/planner-assistant/internal/platform/db/postgres"
)

const assignmentColumns = `id, company_id, employee_id, project_id, work_date, created_at`

const (
	assignmentEmployeeFK = "assignments_employee_id_fkey"
	assignmentProjectFK  = "assignments_project_id_fkey"
)

// AssignmentRepository は PostgreSQL を利用したアサイン永続化の実装です。
// (employee_id, work_date) のユニークインデックスが二重アサインを最終的に防ぎます。
type AssignmentRepository struct {
	pool pgdb.Queryer
}

// NewAssignmentRepository は AssignmentRepository を生成します。
func NewAssignmentRepository(pool pgdb.Queryer) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// CreateMany はアサインをまとめて追加します。
// 呼び出し側のトランザクション内で実行され、一件でも失敗すればトランザクションごと破棄されます。
func (r *AssignmentRepository) CreateMany(ctx context.Context, assignments []*assignment.Assignment) ([]*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	created := make([]*assignment.Assignment, 0, len(assignments))
	for _, a := range assignments {
		date := calendar.Normalize(a.Date)
		row := exec.QueryRow(ctx, `
            INSERT INTO assignments (company_id, employee_id, project_id, work_date, created_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING `+assignmentColumns,
			a.CompanyID, a.EmployeeID, a.ProjectID, date, a.CreatedAt)

		inserted, err := scanAssignment(row)
		if err != nil {
			return nil, wrapSlot(a.EmployeeID, date, translateAssignmentPgError(err))
		}
		created = append(created, inserted)
	}
	return created, nil
}

// Update はアサインの社員・プロジェクト・日付を置き換えます。
func (r *AssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	date := calendar.Normalize(a.Date)
	row := exec.QueryRow(ctx, `
        UPDATE assignments
           SET employee_id = $1,
               project_id = $2,
               work_date = $3
         WHERE id = $4
        RETURNING `+assignmentColumns,
		a.EmployeeID, a.ProjectID, date, a.ID)

	updated, err := scanAssignment(row)
	if err != nil {
		return nil, wrapSlot(a.EmployeeID, date, translateAssignmentPgError(err))
	}
	return updated, nil
}

// Delete はアサインを削除します。
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return translateAssignmentPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return assignment.ErrAssignmentNotFound
	}
	return nil
}

// DeleteByIDs は指定されたアサインを削除します。存在しない ID は無視します。
func (r *AssignmentRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `DELETE FROM assignments WHERE id = ANY($1)`, ids); err != nil {
		return translateAssignmentPgError(err)
	}
	return nil
}

// FindByID は ID でアサインを取得します。
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
          FROM assignments
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanAssignment(row)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return found, nil
}

// List は条件に一致するアサインを日付、社員 ID の順に返します。
func (r *AssignmentRepository) List(ctx context.Context, filter assignment.ListAssignmentsFilter) ([]*assignment.Assignment, error) {
	if strings.TrimSpace(filter.CompanyID) == "" {
		return nil, assignment.ErrInvalidCompanyID
	}

	args := []any{filter.CompanyID}
	conditions := []string{"company_id = $1"}

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		conditions = append(conditions, "employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		conditions = append(conditions, "project_id = $"+strconv.Itoa(len(args)))
	}
	if filter.From != nil {
		args = append(args, calendar.Normalize(*filter.From))
		conditions = append(conditions, "work_date >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, calendar.Normalize(*filter.To))
		conditions = append(conditions, "work_date <= $"+strconv.Itoa(len(args)))
	}

	query := `
        SELECT ` + assignmentColumns + `
          FROM assignments
         WHERE ` + strings.Join(conditions, " AND ") + `
         ORDER BY work_date, employee_id, id
    `
	return r.query(ctx, query, args...)
}

// ListIDsByEmployee は社員に紐づくアサインの ID を返します。
func (r *AssignmentRepository) ListIDsByEmployee(ctx context.Context, employeeID string) ([]string, error) {
	return r.ids(ctx, `SELECT id FROM assignments WHERE employee_id = $1 ORDER BY work_date, id`, employeeID)
}

// ListIDsByProject はプロジェクトに紐づくアサインの ID を返します。
func (r *AssignmentRepository) ListIDsByProject(ctx context.Context, projectID string) ([]string, error) {
	return r.ids(ctx, `SELECT id FROM assignments WHERE project_id = $1 ORDER BY work_date, employee_id, id`, projectID)
}

func (r *AssignmentRepository) query(ctx context.Context, query string, args ...any) ([]*assignment.Assignment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	defer rows.Close()

	result := make([]*assignment.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, translateAssignmentPgError(err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return result, nil
}

func (r *AssignmentRepository) ids(ctx context.Context, query string, arg string) ([]string, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, arg)
	if err != nil {
		return nil, translateAssignmentPgError(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, translateAssignmentPgError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAssignmentPgError(err)
	}
	return ids, nil
}

func scanAssignment(row pgx.Row) (*assignment.Assignment, error) {
	var (
		a         assignment.Assignment
		workDate  time.Time
		createdAt time.Time
	)
	if err := row.Scan(&a.ID, &a.CompanyID, &a.EmployeeID, &a.ProjectID, &workDate, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}
	a.Date = calendar.Normalize(workDate)
	a.CreatedAt = createdAt.UTC()
	return &a, nil
}

func translateAssignmentPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return assignment.ErrAssignmentNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return schedule.ErrDoubleBooked
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case assignmentEmployeeFK:
				return schedule.ErrUnknownEmployee
			case assignmentProjectFK:
				return schedule.ErrUnknownProject
			}
		}
	}

	return err
}

func wrapSlot(employeeID string, date time.Time, err error) error {
	if errors.Is(err, schedule.ErrDoubleBooked) {
		return fmt.Errorf("employee %s on %s: %w", employeeID, calendar.Format(date), err)
	}
	return err
}
