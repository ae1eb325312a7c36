package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/ogurasousui/planner-assistant/internal/core/assignment"
	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
)

// AssignmentRepository は Store 上のアサインリポジトリです。
type AssignmentRepository struct {
	store *Store
}

// NewAssignmentRepository は AssignmentRepository を生成します。
func NewAssignmentRepository(store *Store) *AssignmentRepository {
	return &AssignmentRepository{store: store}
}

// CreateMany は全件を追加するか、一件も追加しません。
func (r *AssignmentRepository) CreateMany(ctx context.Context, assignments []*assignment.Assignment) ([]*assignment.Assignment, error) {
	staged := make([]*assignment.Assignment, 0, len(assignments))
	if err := r.store.write(ctx, func(t *tables) error {
		taken := make(map[string]struct{}, len(t.assignments)+len(assignments))
		for _, a := range t.assignments {
			taken[slot(a)] = struct{}{}
		}

		for _, a := range assignments {
			clone := cloneAssignment(a)
			clone.Date = calendar.Normalize(clone.Date)
			key := slot(clone)
			if _, ok := taken[key]; ok {
				return fmt.Errorf("employee %s on %s: %w", clone.EmployeeID, calendar.Format(clone.Date), schedule.ErrDoubleBooked)
			}
			taken[key] = struct{}{}
			clone.ID = uuid.NewString()
			staged = append(staged, clone)
		}

		for _, a := range staged {
			t.assignments[a.ID] = a
		}
		return nil
	}); err != nil {
		return nil, err
	}

	created := make([]*assignment.Assignment, 0, len(staged))
	for _, a := range staged {
		created = append(created, cloneAssignment(a))
	}
	return created, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	clone := cloneAssignment(a)
	clone.Date = calendar.Normalize(clone.Date)
	if err := r.store.write(ctx, func(t *tables) error {
		if _, ok := t.assignments[a.ID]; !ok {
			return assignment.ErrAssignmentNotFound
		}
		for id, existing := range t.assignments {
			if id != a.ID && slot(existing) == slot(clone) {
				return fmt.Errorf("employee %s on %s: %w", clone.EmployeeID, calendar.Format(clone.Date), schedule.ErrDoubleBooked)
			}
		}
		t.assignments[a.ID] = clone
		return nil
	}); err != nil {
		return nil, err
	}
	return cloneAssignment(clone), nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func(t *tables) error {
		if _, ok := t.assignments[id]; !ok {
			return assignment.ErrAssignmentNotFound
		}
		delete(t.assignments, id)
		return nil
	})
}

// DeleteByIDs は存在しない ID を無視します。
func (r *AssignmentRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.store.write(ctx, func(t *tables) error {
		for _, id := range ids {
			delete(t.assignments, id)
		}
		return nil
	})
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*assignment.Assignment, error) {
	a, ok := r.store.read(ctx).assignments[id]
	if !ok {
		return nil, assignment.ErrAssignmentNotFound
	}
	return cloneAssignment(a), nil
}

func (r *AssignmentRepository) List(ctx context.Context, filter assignment.ListAssignmentsFilter) ([]*assignment.Assignment, error) {
	var result []*assignment.Assignment
	for _, a := range r.store.read(ctx).assignments {
		if a.CompanyID != filter.CompanyID {
			continue
		}
		if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.ProjectID != nil && a.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.From != nil && a.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.Date.After(*filter.To) {
			continue
		}
		result = append(result, cloneAssignment(a))
	}
	sortAssignments(result)
	return result, nil
}

func (r *AssignmentRepository) ListIDsByEmployee(ctx context.Context, employeeID string) ([]string, error) {
	return r.ids(ctx, func(a *assignment.Assignment) bool { return a.EmployeeID == employeeID }), nil
}

func (r *AssignmentRepository) ListIDsByProject(ctx context.Context, projectID string) ([]string, error) {
	return r.ids(ctx, func(a *assignment.Assignment) bool { return a.ProjectID == projectID }), nil
}

func (r *AssignmentRepository) ids(ctx context.Context, match func(*assignment.Assignment) bool) []string {
	var matched []*assignment.Assignment
	for _, a := range r.store.read(ctx).assignments {
		if match(a) {
			matched = append(matched, a)
		}
	}
	sortAssignments(matched)

	ids := make([]string, 0, len(matched))
	for _, a := range matched {
		ids = append(ids, a.ID)
	}
	return ids
}

func sortAssignments(list []*assignment.Assignment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		if list[i].EmployeeID != list[j].EmployeeID {
			return list[i].EmployeeID < list[j].EmployeeID
		}
		return list[i].ID < list[j].ID
	})
}

func slot(a *assignment.Assignment) string {
	return a.EmployeeID + "|" + calendar.Format(a.Date)
}

func cloneAssignment(a *assignment.Assignment) *assignment.Assignment {
	copy := *a
	return &copy
}
