package assignment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
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

// Service はアサインに関するユースケースをまとめます。
// 書き込みはすべて「社員ロック取得 → 既存データ読込 → 検証 → 書き込み」を一つのトランザクションで行います。
type Service struct {
	repo      Repository
	employees EmployeeReader
	projects  ProjectReader
	locker    EmployeeLocker
	clock     Clock
	tx        TransactionManager
}

// UseCase はアサインユースケースの公開インターフェースです。
type UseCase interface {
	CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*Assignment, error)
	CreateAssignments(ctx context.Context, in CreateAssignmentsInput) ([]*Assignment, error)
	CheckAssignments(ctx context.Context, in CreateAssignmentsInput) error
	UpdateAssignment(ctx context.Context, in UpdateAssignmentInput) (*Assignment, error)
	CheckAssignmentUpdate(ctx context.Context, in UpdateAssignmentInput) error
	DeleteAssignment(ctx context.Context, in DeleteAssignmentInput) (*Assignment, error)
	GetAssignment(ctx context.Context, in GetAssignmentInput) (*Assignment, error)
	ListAssignments(ctx context.Context, in ListAssignmentsInput) ([]*Assignment, error)
	FillGaps(ctx context.Context, in FillGapsInput) (*FillGapsResult, error)
}

// NewService は Service を生成します。locker が nil の場合はトランザクションの直列化に任せます。
func NewService(repo Repository, employees EmployeeReader, projects ProjectReader, locker EmployeeLocker, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:      repo,
		employees: employees,
		projects:  projects,
		locker:    locker,
		clock:     clock,
		tx:        tx,
	}
}

// Draft はバッチ作成の一件分です。
type Draft struct {
	EmployeeID string
	ProjectID  string
	Date       time.Time
}

// CreateAssignmentInput はアサイン作成時の入力です。
type CreateAssignmentInput struct {
	CompanyID  string
	EmployeeID string
	ProjectID  string
	Date       time.Time
}

// CreateAssignmentsInput はバッチ作成時の入力です。
type CreateAssignmentsInput struct {
	CompanyID string
	Items     []Draft
}

// UpdateAssignmentInput はアサイン更新時の入力です。nil または空文字のフィールドは変更しません。
type UpdateAssignmentInput struct {
	ID         string
	CompanyID  string
	EmployeeID *string
	ProjectID  *string
	Date       *time.Time
}

// DeleteAssignmentInput はアサイン削除時の入力です。
type DeleteAssignmentInput struct {
	ID        string
	CompanyID string
}

// GetAssignmentInput はアサイン取得時の入力です。CompanyID が空の場合は会社で絞り込みません。
type GetAssignmentInput struct {
	ID        string
	CompanyID string
}

// ListAssignmentsInput は一覧取得時の入力です。
type ListAssignmentsInput struct {
	CompanyID  string
	EmployeeID *string
	ProjectID  *string
	From       *time.Time
	To         *time.Time
}

// FillGapsInput は空き日補完の入力です。DryRun の場合は選択結果だけを返し、書き込みません。
type FillGapsInput struct {
	CompanyID  string
	EmployeeID string
	From       time.Time
	To         time.Time
	DryRun     bool
}

// FillGapsResult は空き日補完の結果です。
type FillGapsResult struct {
	Picks   []schedule.Pick
	Created []*Assignment
}

// CreateAssignment はアサインを一件作成します。業務ルール違反は *schedule.Violation で返します。
func (s *Service) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*Assignment, error) {
	created, err := s.CreateAssignments(ctx, CreateAssignmentsInput{
		CompanyID: in.CompanyID,
		Items:     []Draft{{EmployeeID: in.EmployeeID, ProjectID: in.ProjectID, Date: in.Date}},
	})
	if err != nil {
		return nil, firstViolation(err)
	}
	return created[0], nil
}

// CreateAssignments は複数のアサインをまとめて作成します。
// 一件でも業務ルールに違反した場合は *schedule.BatchError を返し、何も書き込みません。
func (s *Service) CreateAssignments(ctx context.Context, in CreateAssignmentsInput) ([]*Assignment, error) {
	companyID, candidates, err := prepareBatch(in)
	if err != nil {
		return nil, err
	}

	var created []*Assignment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.lock(txCtx, candidates); err != nil {
			return err
		}

		if err := s.validate(txCtx, companyID, candidates); err != nil {
			return err
		}

		result, err := s.write(txCtx, companyID, candidates)
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

// CheckAssignments は CreateAssignments と同じ検証だけを行います。
func (s *Service) CheckAssignments(ctx context.Context, in CreateAssignmentsInput) error {
	companyID, candidates, err := prepareBatch(in)
	if err != nil {
		return err
	}

	return s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		return s.validate(txCtx, companyID, candidates)
	})
}

// UpdateAssignment はアサインの社員・プロジェクト・日付を変更します。
// 変更後の内容は作成時と同じルールで検証し、更新対象自身は二重アサインの判定から除外します。
func (s *Service) UpdateAssignment(ctx context.Context, in UpdateAssignmentInput) (*Assignment, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Assignment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, candidate, err := s.lockForUpdate(txCtx, in)
		if err != nil {
			return err
		}

		if err := s.validate(txCtx, existing.CompanyID, []schedule.Candidate{candidate}); err != nil {
			return firstViolation(err)
		}

		if err := txCtx.Err(); err != nil {
			return err
		}

		existing.EmployeeID = candidate.EmployeeID
		existing.ProjectID = candidate.ProjectID
		existing.Date = candidate.Date

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

// CheckAssignmentUpdate は UpdateAssignment と同じ検証だけを行います。
func (s *Service) CheckAssignmentUpdate(ctx context.Context, in UpdateAssignmentInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		existing, candidate, err := s.prepareUpdate(txCtx, in)
		if err != nil {
			return err
		}
		return firstViolation(s.validate(txCtx, existing.CompanyID, []schedule.Candidate{candidate}))
	})
}

// DeleteAssignment はアサインを削除し、削除したアサインを返します。
func (s *Service) DeleteAssignment(ctx context.Context, in DeleteAssignmentInput) (*Assignment, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var deleted *Assignment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.findScoped(txCtx, in.ID, in.CompanyID)
		if err != nil {
			return err
		}

		if err := s.repo.Delete(txCtx, existing.ID); err != nil {
			return err
		}

		deleted = existing
		return nil
	}); err != nil {
		return nil, err
	}

	return deleted, nil
}

// GetAssignment は ID でアサインを取得します。
func (s *Service) GetAssignment(ctx context.Context, in GetAssignmentInput) (*Assignment, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var found *Assignment
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.findScoped(txCtx, in.ID, in.CompanyID)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// ListAssignments は条件に一致するアサインを日付順に返します。
func (s *Service) ListAssignments(ctx context.Context, in ListAssignmentsInput) ([]*Assignment, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	filter := ListAssignmentsFilter{
		CompanyID:  companyID,
		EmployeeID: trimmedOrNil(in.EmployeeID),
		ProjectID:  trimmedOrNil(in.ProjectID),
		From:       normalizedOrNil(in.From),
		To:         normalizedOrNil(in.To),
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, calendar.ErrInvalidRange
	}

	var assignments []*Assignment
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		assignments = result
		return nil
	}); err != nil {
		return nil, err
	}

	return assignments, nil
}

// FillGaps は期間内の空き平日にプロジェクトを選び、バッチ作成と同じ経路で書き込みます。
func (s *Service) FillGaps(ctx context.Context, in FillGapsInput) (*FillGapsResult, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, ErrInvalidEmployeeID
	}
	if in.From.IsZero() || in.To.IsZero() {
		return nil, ErrInvalidDate
	}
	from, to := calendar.Normalize(in.From), calendar.Normalize(in.To)
	if err := schedule.CheckRequestSpan(from, to); err != nil {
		return nil, err
	}

	within := s.tx.WithinReadWrite
	if in.DryRun {
		within = s.tx.WithinReadOnly
	}

	result := &FillGapsResult{}
	if err := within(ctx, func(txCtx context.Context) error {
		if !in.DryRun {
			if err := s.lock(txCtx, []schedule.Candidate{{EmployeeID: employeeID}}); err != nil {
				return err
			}
		}

		emp, err := s.employees.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}
		if emp.CompanyID != companyID {
			return employee.ErrEmployeeNotFound
		}

		projects, err := s.projects.List(txCtx, project.ListProjectsFilter{CompanyID: companyID})
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		lookbackFrom, lookbackTo := schedule.LookbackStart(from), schedule.LookbackEnd(to)
		existing, err := s.repo.List(txCtx, ListAssignmentsFilter{
			CompanyID:  companyID,
			EmployeeID: &employeeID,
			From:       &lookbackFrom,
			To:         &lookbackTo,
		})
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}

		history := make([]schedule.Booking, 0, len(existing))
		for _, a := range existing {
			history = append(history, a.Booking())
		}

		picks, err := schedule.FillGaps(schedule.GapFillRequest{
			Employee: emp,
			From:     from,
			To:       to,
			Projects: projects,
			History:  history,
		})
		if err != nil {
			return err
		}
		result.Picks = picks

		if in.DryRun || len(picks) == 0 {
			return nil
		}

		candidates := make([]schedule.Candidate, 0, len(picks))
		for _, p := range picks {
			candidates = append(candidates, p.Candidate)
		}

		if err := s.validate(txCtx, companyID, candidates); err != nil {
			return err
		}

		created, err := s.write(txCtx, companyID, candidates)
		if err != nil {
			return err
		}
		result.Created = created
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// lockForUpdate は更新前後の社員のロックを取得してからアサインを読み直します。
// 読み直した結果に未ロックの社員が現れた場合は、その社員をロックしてもう一度読み直します。
func (s *Service) lockForUpdate(ctx context.Context, in UpdateAssignmentInput) (*Assignment, schedule.Candidate, error) {
	locked := make(map[string]struct{})
	for {
		existing, candidate, err := s.prepareUpdate(ctx, in)
		if err != nil {
			return nil, schedule.Candidate{}, err
		}

		var targets []schedule.Candidate
		for _, id := range []string{existing.EmployeeID, candidate.EmployeeID} {
			if _, ok := locked[id]; !ok {
				targets = append(targets, schedule.Candidate{EmployeeID: id})
			}
		}
		if len(targets) == 0 || s.locker == nil {
			return existing, candidate, nil
		}

		if err := s.lock(ctx, targets); err != nil {
			return nil, schedule.Candidate{}, err
		}
		for _, c := range targets {
			locked[c.EmployeeID] = struct{}{}
		}
	}
}

func (s *Service) prepareUpdate(ctx context.Context, in UpdateAssignmentInput) (*Assignment, schedule.Candidate, error) {
	existing, err := s.findScoped(ctx, in.ID, in.CompanyID)
	if err != nil {
		return nil, schedule.Candidate{}, err
	}

	candidate := schedule.Candidate{
		EmployeeID: existing.EmployeeID,
		ProjectID:  existing.ProjectID,
		Date:       existing.Date,
		ReplacesID: existing.ID,
	}
	if present(in.EmployeeID) {
		candidate.EmployeeID = strings.TrimSpace(*in.EmployeeID)
	}
	if present(in.ProjectID) {
		candidate.ProjectID = strings.TrimSpace(*in.ProjectID)
	}
	if in.Date != nil && !in.Date.IsZero() {
		candidate.Date = calendar.Normalize(*in.Date)
	}

	return existing, candidate, nil
}

// validate は候補に関係する社員・プロジェクト・既存アサインを読み込み、業務ルールを検証します。
// 別の会社に属する社員やプロジェクトは存在しないものとして扱います。
func (s *Service) validate(ctx context.Context, companyID string, candidates []schedule.Candidate) error {
	from, to, err := schedule.CandidatesSpan(candidates)
	if err != nil {
		return err
	}

	facts := schedule.Facts{
		Employees: make(map[string]*employee.Employee),
		Projects:  make(map[string]*project.Project),
	}

	for _, id := range uniqueIDs(candidates, func(c schedule.Candidate) string { return c.EmployeeID }) {
		emp, err := s.employees.FindByID(ctx, id)
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load employee %s: %w", id, err)
		}
		if emp.CompanyID != companyID {
			continue
		}
		facts.Employees[id] = emp

		employeeID := id
		bookings, err := s.repo.List(ctx, ListAssignmentsFilter{
			CompanyID:  companyID,
			EmployeeID: &employeeID,
			From:       &from,
			To:         &to,
		})
		if err != nil {
			return fmt.Errorf("load bookings for %s: %w", id, err)
		}
		for _, b := range bookings {
			facts.Bookings = append(facts.Bookings, b.Booking())
		}
	}

	for _, id := range uniqueIDs(candidates, func(c schedule.Candidate) string { return c.ProjectID }) {
		p, err := s.projects.FindByID(ctx, id)
		if errors.Is(err, project.ErrProjectNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load project %s: %w", id, err)
		}
		if p.CompanyID != companyID {
			continue
		}
		facts.Projects[id] = p
	}

	return schedule.ValidateBatch(facts, candidates)
}

func (s *Service) write(ctx context.Context, companyID string, candidates []schedule.Candidate) ([]*Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	records := make([]*Assignment, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, &Assignment{
			CompanyID:  companyID,
			EmployeeID: c.EmployeeID,
			ProjectID:  c.ProjectID,
			Date:       calendar.Normalize(c.Date),
			CreatedAt:  now,
		})
	}

	return s.repo.CreateMany(ctx, records)
}

// lock は関係する社員のロックを ID 順に取得します。
func (s *Service) lock(ctx context.Context, candidates []schedule.Candidate) error {
	if s.locker == nil {
		return nil
	}
	for _, id := range uniqueIDs(candidates, func(c schedule.Candidate) string { return c.EmployeeID }) {
		if err := s.locker.LockEmployee(ctx, id); err != nil {
			return fmt.Errorf("lock employee %s: %w", id, err)
		}
	}
	return nil
}

func (s *Service) findScoped(ctx context.Context, id, companyID string) (*Assignment, error) {
	found, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if scope := strings.TrimSpace(companyID); scope != "" && found.CompanyID != scope {
		return nil, ErrAssignmentNotFound
	}
	return found, nil
}

func prepareBatch(in CreateAssignmentsInput) (string, []schedule.Candidate, error) {
	companyID, err := normalizeCompanyID(in.CompanyID)
	if err != nil {
		return "", nil, err
	}
	if len(in.Items) == 0 {
		return "", nil, schedule.ErrEmptyBatch
	}

	candidates := make([]schedule.Candidate, 0, len(in.Items))
	for i, item := range in.Items {
		employeeID := strings.TrimSpace(item.EmployeeID)
		if employeeID == "" {
			return "", nil, fmt.Errorf("item %d: %w", i, ErrInvalidEmployeeID)
		}
		projectID := strings.TrimSpace(item.ProjectID)
		if projectID == "" {
			return "", nil, fmt.Errorf("item %d: %w", i, ErrInvalidProjectID)
		}
		if item.Date.IsZero() {
			return "", nil, fmt.Errorf("item %d: %w", i, ErrInvalidDate)
		}
		candidates = append(candidates, schedule.Candidate{
			EmployeeID: employeeID,
			ProjectID:  projectID,
			Date:       calendar.Normalize(item.Date),
		})
	}

	from, to, err := schedule.CandidatesSpan(candidates)
	if err != nil {
		return "", nil, err
	}
	if err := schedule.CheckRequestSpan(from, to); err != nil {
		return "", nil, err
	}

	return companyID, candidates, nil
}

// firstViolation は一件だけの検証結果を *schedule.Violation に展開します。
func firstViolation(err error) error {
	var batchErr *schedule.BatchError
	if errors.As(err, &batchErr) && len(batchErr.Violations) == 1 {
		return batchErr.Violations[0]
	}
	return err
}

func uniqueIDs(candidates []schedule.Candidate, key func(schedule.Candidate) string) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if id := key(c); id != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func normalizeCompanyID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidCompanyID
	}
	return trimmed, nil
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

func normalizedOrNil(value *time.Time) *time.Time {
	if value == nil || value.IsZero() {
		return nil
	}
	normalized := calendar.Normalize(*value)
	return &normalized
}
