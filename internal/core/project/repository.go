package project

import "context"

// Repository はプロジェクトエンティティの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, project *Project) (*Project, error)
	Update(ctx context.Context, project *Project) (*Project, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindByCompanyAndName(ctx context.Context, companyID, name string) (*Project, error)
	List(ctx context.Context, filter ListProjectsFilter) ([]*Project, error)
}

// ListProjectsFilter は一覧取得時の検索条件を表します。
type ListProjectsFilter struct {
	CompanyID        string
	Name             *string
	MustBeOnPremises *bool
}

// AssignmentCleaner はプロジェクト削除時に紐づくアサインを取り除きます。
type AssignmentCleaner interface {
	ListIDsByProject(ctx context.Context, projectID string) ([]string, error)
	DeleteByIDs(ctx context.Context, ids []string) error
}
