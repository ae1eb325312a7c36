package employee

import (
	"context"
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

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo        Repository
	assignments AssignmentCleaner
	clock       Clock
	tx          TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	FindEmployeeByName(ctx context.Context, in FindEmployeeByNameInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) (*DeleteEmployeeResult, error)
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

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	CompanyID     string
	Name          string
	Surname       string
	Email         string
	Language      *Language
	WorksRemotely *bool
}

// UpdateEmployeeInput は社員更新時の入力です。nil または空文字のフィールドは変更しません。
type UpdateEmployeeInput struct {
	ID            string
	CompanyID     string
	Name          *string
	Surname       *string
	Email         *string
	Language      *Language
	WorksRemotely *bool
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	ID        string
	CompanyID string
}

// DeleteEmployeeResult は社員削除の結果です。
type DeleteEmployeeResult struct {
	Employee             *Employee
	RemovedAssignmentIDs []string
}

// GetEmployeeInput は社員取得時の入力です。CompanyID が空の場合は会社で絞り込みません。
type GetEmployeeInput struct {
	ID        string
	CompanyID string
}

// FindEmployeeByNameInput は氏名検索の入力です。
type FindEmployeeByNameInput struct {
	CompanyID string
	Name      string
	Surname   string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	CompanyID     string
	Name          *string
	Surname       *string
	WorksRemotely *bool
}

// CreateEmployee は新しい社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	name, err := normalizeName(in.Name, ErrInvalidName)
	if err != nil {
		return nil, err
	}

	surname, err := normalizeName(in.Surname, ErrInvalidSurname)
	if err != nil {
		return nil, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	lang := LanguageDE
	if in.Language != nil {
		normalized, err := normalizeLanguage(*in.Language)
		if err != nil {
			return nil, err
		}
		lang = normalized
	}

	remote := false
	if in.WorksRemotely != nil {
		remote = *in.WorksRemotely
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		emp := &Employee{
			CompanyID:     companyID,
			Name:          name,
			Surname:       surname,
			Email:         email,
			Language:      lang,
			WorksRemotely: remote,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		result, err := s.repo.Create(txCtx, emp)
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

// UpdateEmployee は社員情報を部分更新します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.findScoped(txCtx, in.ID, in.CompanyID)
		if err != nil {
			return err
		}

		if present(in.Name) {
			name, err := normalizeName(*in.Name, ErrInvalidName)
			if err != nil {
				return err
			}
			existing.Name = name
		}

		if present(in.Surname) {
			surname, err := normalizeName(*in.Surname, ErrInvalidSurname)
			if err != nil {
				return err
			}
			existing.Surname = surname
		}

		if present(in.Email) {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			existing.Email = email
		}

		if in.Language != nil && strings.TrimSpace(string(*in.Language)) != "" {
			lang, err := normalizeLanguage(*in.Language)
			if err != nil {
				return err
			}
			existing.Language = lang
		}

		if in.WorksRemotely != nil {
			existing.WorksRemotely = *in.WorksRemotely
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

// DeleteEmployee は社員と、その社員に紐づくアサインをまとめて削除します。
// どこかで失敗した場合はトランザクションごとロールバックされます。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) (*DeleteEmployeeResult, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *DeleteEmployeeResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.findScoped(txCtx, in.ID, in.CompanyID)
		if err != nil {
			return err
		}

		var removed []string
		if s.assignments != nil {
			ids, err := s.assignments.ListIDsByEmployee(txCtx, existing.ID)
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

		result = &DeleteEmployeeResult{Employee: existing, RemovedAssignmentIDs: removed}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.findScoped(txCtx, in.ID, in.CompanyID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// FindEmployeeByName は氏名で社員を検索し、最初に登録された一致を返します。
func (s *Service) FindEmployeeByName(ctx context.Context, in FindEmployeeByNameInput) (*Employee, error) {
	name, err := normalizeName(in.Name, ErrInvalidName)
	if err != nil {
		return nil, err
	}
	surname, err := normalizeName(in.Surname, ErrInvalidSurname)
	if err != nil {
		return nil, err
	}

	found, err := s.ListEmployees(ctx, ListEmployeesInput{
		CompanyID: in.CompanyID,
		Name:      &name,
		Surname:   &surname,
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrEmployeeNotFound
	}
	return found[0], nil
}

// ListEmployees は条件に一致する社員を登録順に返します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	filter := ListEmployeesFilter{
		CompanyID:     companyID,
		Name:          trimmedOrNil(in.Name),
		Surname:       trimmedOrNil(in.Surname),
		WorksRemotely: in.WorksRemotely,
	}

	var employees []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		employees = result
		return nil
	}); err != nil {
		return nil, err
	}

	return employees, nil
}

func (s *Service) findScoped(ctx context.Context, id, companyID string) (*Employee, error) {
	found, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if scope := strings.TrimSpace(companyID); scope != "" && found.CompanyID != scope {
		return nil, ErrEmployeeNotFound
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

func normalizeName(raw string, invalid error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid
	}
	return trimmed, nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(trimmed) {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}

func normalizeLanguage(raw Language) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(string(raw))))
	switch lang {
	case LanguageDE, LanguageEN, LanguageFR, LanguageIT:
		return lang, nil
	default:
		return "", ErrInvalidLanguage
	}
}

func present(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func trimmedOrNil(value *string) *string {
	if !present(value) {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
