package project

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const defaultColor = "#3F51B5"

var colorPattern = regexp.MustCompile(`^#(?:[0-9A-F]{3}|[0-9A-F]{6})$`)

// Service はプロジェクトに関するユースケースをまとめます。
type Service struct {
	repo        Repository
	assignments AssignmentCleaner
	clock       Clock
	tx          TransactionManager
}

// UseCase はプロジェクトユースケースの公開インターフェースです。
type UseCase interface {
	CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error)
	GetProject(ctx context.Context, in GetProjectInput) (*Project, error)
	FindProjectByName(ctx context.Context, in FindProjectByNameInput) (*Project, error)
	ListProjects(ctx context.Context, in ListProjectsInput) ([]*Project, error)
	UpdateProject(ctx context.Context, in UpdateProjectInput) (*Project, error)
	DeleteProject(ctx context.Context, in DeleteProjectInput) (*DeleteProjectResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, assignments AssignmentCleaner, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, assignments: assignments, clock: clock, tx: tx}
}

// CreateProjectInput はプロジェクト作成時の入力です。
type CreateProjectInput struct {
	CompanyID        string
	Name             string
	Color            string
	MustBeOnPremises *bool
}

// UpdateProjectInput はプロジェクト更新時の入力です。nil または空文字のフィールドは変更しません。
type UpdateProjectInput struct {
	ID               string
	CompanyID        string
	Name             *string
	Color            *string
	MustBeOnPremises *bool
}

// DeleteProjectInput はプロジェクト削除時の入力です。
type DeleteProjectInput struct {
	ID        string
	CompanyID string
}

// DeleteProjectResult はプロジェクト削除の結果です。
type DeleteProjectResult struct {
	Project              *Project
	RemovedAssignmentIDs []string
}

// GetProjectInput はプロジェクト取得時の入力です。
type GetProjectInput struct {
	ID        string
	CompanyID string
}

// FindProjectByNameInput は名前検索の入力です。
type FindProjectByNameInput struct {
	CompanyID string
	Name      string
}

// ListProjectsInput は一覧取得時の入力です。
type ListProjectsInput struct {
	CompanyID        string
	Name             *string
	MustBeOnPremises *bool
}

// CreateProject は新しいプロジェクトを作成します。
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	color := defaultColor
	if strings.TrimSpace(in.Color) != "" {
		color, err = normalizeColor(in.Color)
		if err != nil {
			return nil, err
		}
	}

	onPremises := false
	if in.MustBeOnPremises != nil {
		onPremises = *in.MustBeOnPremises
	}

	var created *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureNameNotExists(txCtx, companyID, name); err != nil {
			return err
		}

		now := s.clock.Now()
		project := &Project{
			CompanyID:        companyID,
			Name:             name,
			Color:            color,
			MustBeOnPremises: onPremises,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		result, err := s.repo.Create(txCtx, project)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateProject はプロジェクト情報を部分更新します。
func (s *Service) UpdateProject(ctx context.Context, in UpdateProjectInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.findScoped(txCtx, in.ID, in.CompanyID)
		if err != nil {
			return err
		}

		if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
			name, err := normalizeName(*in.Name)
			if err != nil {
				return err
			}
			if !strings.EqualFold(name, existing.Name) {
				if err := s.ensureNameNotExists(txCtx, existing.CompanyID, name); err != nil {
					return err
				}
			}
			existing.Name = name
		}

		if in.Color != nil && strings.TrimSpace(*in.Color) != "" {
			color, err := normalizeColor(*in.Color)
			if err != nil {
				return err
			}
			existing.Color = color
		}

		if in.MustBeOnPremises != nil {
			existing.MustBeOnPremises = *in.MustBeOnPremises
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteProject はプロジェクトと、そのプロジェクトへのアサインをまとめて削除します。
func (s *Service) DeleteProject(ctx context.Context, in DeleteProjectInput) (*DeleteProjectResult, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *DeleteProjectResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.findScoped(txCtx, in.ID, in.CompanyID)
		if err != nil {
			return err
		}

		var removed []string
		if s.assignments != nil {
			ids, err := s.assignments.ListIDsByProject(txCtx, existing.ID)
			if err != nil {
				return fmt.Errorf("collect assignments: %w", err)
			}
			if len(ids) > 0 {
				if err := s.assignments.DeleteByIDs(txCtx, ids); err != nil {
					return fmt.Errorf("delete assignments: %w", err)
				}
			}
			removed = ids
		}

		if err := s.repo.Delete(txCtx, existing.ID); err != nil {
			return err
		}

		result = &DeleteProjectResult{Project: existing, RemovedAssignmentIDs: removed}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// GetProject は ID でプロジェクトを取得します。
func (s *Service) GetProject(ctx context.Context, in GetProjectInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var project *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.findScoped(txCtx, in.ID, in.CompanyID)
		if err != nil {
			return err
		}
		project = result
		return nil
	}); err != nil {
		return nil, err
	}

	return project, nil
}

// FindProjectByName は会社内でプロジェクト名が一致するものを取得します。
func (s *Service) FindProjectByName(ctx context.Context, in FindProjectByNameInput) (*Project, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var project *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByCompanyAndName(txCtx, companyID, name)
		if err != nil {
			return err
		}
		project = result
		return nil
	}); err != nil {
		return nil, err
	}

	return project, nil
}

// ListProjects はプロジェクトを名前順で返します。
func (s *Service) ListProjects(ctx context.Context, in ListProjectsInput) ([]*Project, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	filter := ListProjectsFilter{CompanyID: companyID, MustBeOnPremises: in.MustBeOnPremises}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		name := strings.TrimSpace(*in.Name)
		filter.Name = &name
	}

	var projects []*Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		projects = result
		return nil
	}); err != nil {
		return nil, err
	}

	return projects, nil
}

func (s *Service) ensureNameNotExists(ctx context.Context, companyID, name string) error {
	project, err := s.repo.FindByCompanyAndName(ctx, companyID, name)
	if err != nil && !errors.Is(err, ErrProjectNotFound) {
		return err
	}
	if project != nil {
		return ErrNameAlreadyExists
	}
	return nil
}

func (s *Service) findScoped(ctx context.Context, id, companyID string) (*Project, error) {
	found, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if scope := strings.TrimSpace(companyID); scope != "" && found.CompanyID != scope {
		return nil, ErrProjectNotFound
	}
	return found, nil
}

func normalizeCompanyID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidCompanyID
	}
	return trimmed, nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizeColor(raw string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.HasPrefix(upper, "#") {
		upper = "#" + upper
	}
	if !colorPattern.MatchString(upper) {
		return "", ErrInvalidColor
	}
	return upper, nil
}
