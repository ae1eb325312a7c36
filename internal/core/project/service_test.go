package project

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeRepo struct {
	projects map[string]*Project
	order    []string
	seq      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{projects: make(map[string]*Project)}
}

func (r *fakeRepo) Create(_ context.Context, project *Project) (*Project, error) {
	for _, p := range r.projects {
		if p.CompanyID == project.CompanyID && strings.EqualFold(p.Name, project.Name) {
			return nil, ErrNameAlreadyExists
		}
	}
	clone := cloneProject(project)
	r.seq++
	id := fmt.Sprintf("project-%d", r.seq)
	clone.ID = id
	r.projects[id] = clone
	r.order = append(r.order, id)
	return cloneProject(clone), nil
}

func (r *fakeRepo) Update(_ context.Context, project *Project) (*Project, error) {
	if _, ok := r.projects[project.ID]; !ok {
		return nil, ErrProjectNotFound
	}
	r.projects[project.ID] = cloneProject(project)
	return cloneProject(project), nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(r.projects, id)
	r.order = slices.DeleteFunc(r.order, func(existing string) bool { return existing == id })
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (r *fakeRepo) FindByCompanyAndName(_ context.Context, companyID, name string) (*Project, error) {
	for _, p := range r.projects {
		if p.CompanyID == companyID && strings.EqualFold(p.Name, name) {
			return cloneProject(p), nil
		}
	}
	return nil, ErrProjectNotFound
}

func (r *fakeRepo) List(_ context.Context, filter ListProjectsFilter) ([]*Project, error) {
	var result []*Project
	for _, id := range r.order {
		p := r.projects[id]
		if p.CompanyID != filter.CompanyID {
			continue
		}
		if filter.MustBeOnPremises != nil && p.MustBeOnPremises != *filter.MustBeOnPremises {
			continue
		}
		result = append(result, cloneProject(p))
	}
	return result, nil
}

type fakeCleaner struct {
	byProject map[string][]string
	deleted   []string
	err       error
}

func (c *fakeCleaner) ListIDsByProject(_ context.Context, projectID string) ([]string, error) {
	return c.byProject[projectID], nil
}

func (c *fakeCleaner) DeleteByIDs(_ context.Context, ids []string) error {
	if c.err != nil {
		return c.err
	}
	c.deleted = append(c.deleted, ids...)
	return nil
}

func cloneProject(p *Project) *Project {
	if p == nil {
		return nil
	}
	copy := *p
	return &copy
}

func TestService_CreateProject_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(newFakeRepo(), nil, &stubClock{now: now}, nil)

	onPremises := true
	created, err := svc.CreateProject(context.Background(), CreateProjectInput{
		CompanyID:        "company-1",
		Name:             "  Website Relaunch ",
		Color:            "ff5733",
		MustBeOnPremises: &onPremises,
	})
	if err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}

	if created.Name != "Website Relaunch" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.Color != "#FF5733" {
		t.Fatalf("expected normalized color, got %s", created.Color)
	}
	if !created.MustBeOnPremises {
		t.Fatalf("expected on-premises flag to be stored")
	}
	if !created.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at to use clock")
	}
}

func TestService_CreateProject_DuplicateNameInCompany(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil, nil, nil)

	if _, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-1", Name: "Apollo", Color: "#000"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-1", Name: "apollo", Color: "#fff"})
	if !errors.Is(err, ErrNameAlreadyExists) {
		t.Fatalf("expected ErrNameAlreadyExists, got %v", err)
	}

	if _, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-2", Name: "Apollo"}); err != nil {
		t.Fatalf("expected same name in another company to succeed, got %v", err)
	}
}

func TestService_CreateProject_InvalidColor(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil, nil, nil)

	_, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-1", Name: "Apollo", Color: "blue"})
	if !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
}

func TestService_UpdateProject_RenameConflict(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil, nil, nil)

	if _, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-1", Name: "Apollo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-1", Name: "Gemini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := "APOLLO"
	if _, err := svc.UpdateProject(context.Background(), UpdateProjectInput{ID: second.ID, Name: &name}); !errors.Is(err, ErrNameAlreadyExists) {
		t.Fatalf("expected ErrNameAlreadyExists, got %v", err)
	}

	color := "#00ff00"
	onPremises := true
	updated, err := svc.UpdateProject(context.Background(), UpdateProjectInput{ID: second.ID, Color: &color, MustBeOnPremises: &onPremises})
	if err != nil {
		t.Fatalf("UpdateProject returned error: %v", err)
	}
	if updated.Name != "Gemini" || updated.Color != "#00FF00" || !updated.MustBeOnPremises {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestService_DeleteProject_CascadesAssignments(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	cleaner := &fakeCleaner{byProject: map[string][]string{"project-1": {"a-1", "a-2"}}}
	svc := NewService(repo, cleaner, nil, nil)

	if _, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-1", Name: "Apollo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.DeleteProject(context.Background(), DeleteProjectInput{ID: "project-1"})
	if err != nil {
		t.Fatalf("DeleteProject returned error: %v", err)
	}
	if len(result.RemovedAssignmentIDs) != 2 || len(cleaner.deleted) != 2 {
		t.Fatalf("expected two assignments removed, got %v / %v", result.RemovedAssignmentIDs, cleaner.deleted)
	}
}

func TestService_DeleteProject_CascadeFailureKeepsProject(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	cleanupErr := errors.New("boom")
	cleaner := &fakeCleaner{byProject: map[string][]string{"project-1": {"a-1"}}, err: cleanupErr}
	svc := NewService(repo, cleaner, nil, nil)

	if _, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-1", Name: "Apollo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.DeleteProject(context.Background(), DeleteProjectInput{ID: "project-1"}); !errors.Is(err, cleanupErr) {
		t.Fatalf("expected cleanup error, got %v", err)
	}
	if _, err := repo.FindByID(context.Background(), "project-1"); err != nil {
		t.Fatalf("expected project to remain after failed cascade, got %v", err)
	}
}

func TestService_FindProjectByName(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), nil, nil, nil)

	created, err := svc.CreateProject(context.Background(), CreateProjectInput{CompanyID: "company-1", Name: "Apollo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := svc.FindProjectByName(context.Background(), FindProjectByNameInput{CompanyID: "company-1", Name: " apollo "})
	if err != nil {
		t.Fatalf("FindProjectByName returned error: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, found.ID)
	}

	if _, err := svc.FindProjectByName(context.Background(), FindProjectByNameInput{CompanyID: "company-1", Name: "Zeus"}); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}
