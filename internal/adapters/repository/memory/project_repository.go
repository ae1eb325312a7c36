package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
)

// ProjectRepository は Store 上のプロジェクトリポジトリです。
type ProjectRepository struct {
	store *Store
}

// NewProjectRepository は ProjectRepository を生成します。
func NewProjectRepository(store *Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	clone := cloneProject(p)
	clone.ID = uuid.NewString()
	if err := r.store.write(ctx, func(t *tables) error {
		if nameTaken(t, p.CompanyID, p.Name, "") {
			return project.ErrNameAlreadyExists
		}
		t.projects[clone.ID] = clone
		t.projectOrder = append(t.projectOrder, clone.ID)
		return nil
	}); err != nil {
		return nil, err
	}
	return cloneProject(clone), nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) (*project.Project, error) {
	if err := r.store.write(ctx, func(t *tables) error {
		if _, ok := t.projects[p.ID]; !ok {
			return project.ErrProjectNotFound
		}
		if nameTaken(t, p.CompanyID, p.Name, p.ID) {
			return project.ErrNameAlreadyExists
		}
		t.projects[p.ID] = cloneProject(p)
		return nil
	}); err != nil {
		return nil, err
	}
	return cloneProject(p), nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func(t *tables) error {
		if _, ok := t.projects[id]; !ok {
			return project.ErrProjectNotFound
		}
		delete(t.projects, id)
		t.projectOrder = slices.DeleteFunc(slices.Clone(t.projectOrder), func(existing string) bool { return existing == id })
		return nil
	})
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*project.Project, error) {
	p, ok := r.store.read(ctx).projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (r *ProjectRepository) FindByCompanyAndName(ctx context.Context, companyID, name string) (*project.Project, error) {
	t := r.store.read(ctx)
	for _, id := range t.projectOrder {
		p := t.projects[id]
		if p.CompanyID == companyID && strings.EqualFold(p.Name, name) {
			return cloneProject(p), nil
		}
	}
	return nil, project.ErrProjectNotFound
}

func (r *ProjectRepository) List(ctx context.Context, filter project.ListProjectsFilter) ([]*project.Project, error) {
	t := r.store.read(ctx)

	var result []*project.Project
	for _, id := range t.projectOrder {
		p := t.projects[id]
		if p.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Name != nil && !strings.EqualFold(p.Name, *filter.Name) {
			continue
		}
		if filter.MustBeOnPremises != nil && p.MustBeOnPremises != *filter.MustBeOnPremises {
			continue
		}
		result = append(result, cloneProject(p))
	}
	return result, nil
}

func nameTaken(t *tables, companyID, name, exceptID string) bool {
	for id, p := range t.projects {
		if id != exceptID && p.CompanyID == companyID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func cloneProject(p *project.Project) *project.Project {
	copy := *p
	return &copy
}
