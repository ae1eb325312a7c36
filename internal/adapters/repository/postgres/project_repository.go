package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
	pgdb "github.com/ogurasousui/planner-assistant/internal/platform/db/postgres"
)

const projectColumns = `id, company_id, name, color, must_be_on_premises, created_at, updated_at`

// ProjectRepository は PostgreSQL を利用したプロジェクト永続化の実装です。
// 名前の一意性は (company_id, lower(name)) のユニークインデックスで保証します。
type ProjectRepository struct {
	pool pgdb.Queryer
}

// NewProjectRepository は ProjectRepository を生成します。
func NewProjectRepository(pool pgdb.Queryer) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create はプロジェクトを新規作成します。
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO projects (company_id, name, color, must_be_on_premises, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+projectColumns,
		p.CompanyID, p.Name, p.Color, p.MustBeOnPremises, p.CreatedAt, p.UpdatedAt)

	created, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return created, nil
}

// Update はプロジェクト情報を更新します。
func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE projects
           SET name = $1,
               color = $2,
               must_be_on_premises = $3,
               updated_at = $4
         WHERE id = $5
        RETURNING `+projectColumns,
		p.Name, p.Color, p.MustBeOnPremises, p.UpdatedAt, p.ID)

	updated, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return updated, nil
}

// Delete はプロジェクトを削除します。
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return translateProjectPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

// FindByID は ID でプロジェクトを取得します。
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+projectColumns+`
          FROM projects
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

// FindByCompanyAndName は会社内で名前が一致するプロジェクトを取得します。
func (r *ProjectRepository) FindByCompanyAndName(ctx context.Context, companyID, name string) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+projectColumns+`
          FROM projects
         WHERE company_id = $1 AND lower(name) = lower($2)
         LIMIT 1
    `, companyID, name)

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

// List はプロジェクトの一覧を登録順に取得します。
func (r *ProjectRepository) List(ctx context.Context, filter project.ListProjectsFilter) ([]*project.Project, error) {
	if strings.TrimSpace(filter.CompanyID) == "" {
		return nil, project.ErrInvalidCompanyID
	}

	args := []any{filter.CompanyID}
	conditions := []string{"company_id = $1"}

	if filter.Name != nil {
		args = append(args, *filter.Name)
		conditions = append(conditions, "lower(name) = lower($"+strconv.Itoa(len(args))+")")
	}
	if filter.MustBeOnPremises != nil {
		args = append(args, *filter.MustBeOnPremises)
		conditions = append(conditions, "must_be_on_premises = $"+strconv.Itoa(len(args)))
	}

	query := `
        SELECT ` + projectColumns + `
          FROM projects
         WHERE ` + strings.Join(conditions, " AND ") + `
         ORDER BY created_at, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	defer rows.Close()

	projects := make([]*project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, translateProjectPgError(err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translateProjectPgError(err)
	}

	return projects, nil
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		p         project.Project
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Color, &p.MustBeOnPremises, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, project.ErrProjectNotFound
		}
		return nil, err
	}
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return &p, nil
}

func translateProjectPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return project.ErrProjectNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return project.ErrNameAlreadyExists
		case checkViolationCode:
			return project.ErrInvalidColor
		}
	}

	return err
}
