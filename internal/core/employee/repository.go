package employee

import "context"

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, error)
}

// ListEmployeesFilter は一覧取得用フィルタです。
// nil のフィールドは条件に含めません。名前の比較は大文字小文字を区別しません。
type ListEmployeesFilter struct {
	CompanyID     string
	Name          *string
	Surname       *string
	WorksRemotely *bool
}

// AssignmentCleaner は社員削除時に紐づくアサインを取り除きます。
type AssignmentCleaner interface {
	ListIDsByEmployee(ctx context.Context, employeeID string) ([]string, error)
	DeleteByIDs(ctx context.Context, ids []string) error
}
