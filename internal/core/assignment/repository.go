package assignment

import (
	"context"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
)

// Repository はアサインの永続化を行うインターフェースです。
// 同じ社員・同じ日付の行が既に存在する場合、CreateMany と Update は schedule.ErrDoubleBooked を返します。
type Repository interface {
	CreateMany(ctx context.Context, assignments []*Assignment) ([]*Assignment, error)
	Update(ctx context.Context, assignment *Assignment) (*Assignment, error)
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	FindByID(ctx context.Context, id string) (*Assignment, error)
	List(ctx context.Context, filter ListAssignmentsFilter) ([]*Assignment, error)
	ListIDsByEmployee(ctx context.Context, employeeID string) ([]string, error)
	ListIDsByProject(ctx context.Context, projectID string) ([]string, error)
}

// ListAssignmentsFilter は一覧取得時の検索条件です。nil の条件はすべてに一致します。
// From / To は両端を含みます。結果は日付、社員 ID の順に並びます。
type ListAssignmentsFilter struct {
	CompanyID  string
	EmployeeID *string
	ProjectID  *string
	From       *time.Time
	To         *time.Time
}

// EmployeeLocker は社員単位でアサインの書き込みを直列化します。
// ロックは現在のトランザクションが終わるまで保持されます。
type EmployeeLocker interface {
	LockEmployee(ctx context.Context, employeeID string) error
}

// EmployeeReader は検証に必要な社員を取得します。
type EmployeeReader interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
}

// ProjectReader は検証と空き日補完に必要なプロジェクトを取得します。
type ProjectReader interface {
	FindByID(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context, filter project.ListProjectsFilter) ([]*project.Project, error)
}
