package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
)

// EmployeeRepository は Store 上の社員リポジトリです。
type EmployeeRepository struct {
	store *Store
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	clone := cloneEmployee(e)
	clone.ID = uuid.NewString()
	if err := r.store.write(ctx, func(t *tables) error {
		t.employees[clone.ID] = clone
		t.employeeOrder = append(t.employeeOrder, clone.ID)
		return nil
	}); err != nil {
		return nil, err
	}
	return cloneEmployee(clone), nil
}

func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	if err := r.store.write(ctx, func(t *tables) error {
		if _, ok := t.employees[e.ID]; !ok {
			return employee.ErrEmployeeNotFound
		}
		t.employees[e.ID] = cloneEmployee(e)
		return nil
	}); err != nil {
		return nil, err
	}
	return cloneEmployee(e), nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func(t *tables) error {
		if _, ok := t.employees[id]; !ok {
			return employee.ErrEmployeeNotFound
		}
		delete(t.employees, id)
		t.employeeOrder = slices.DeleteFunc(slices.Clone(t.employeeOrder), func(existing string) bool { return existing == id })
		return nil
	})
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	e, ok := r.store.read(ctx).employees[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	return cloneEmployee(e), nil
}

func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, error) {
	t := r.store.read(ctx)

	var result []*employee.Employee
	for _, id := range t.employeeOrder {
		e := t.employees[id]
		if e.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Name != nil && !strings.EqualFold(e.Name, *filter.Name) {
			continue
		}
		if filter.Surname != nil && !strings.EqualFold(e.Surname, *filter.Surname) {
			continue
		}
		if filter.WorksRemotely != nil && e.WorksRemotely != *filter.WorksRemotely {
			continue
		}
		result = append(result, cloneEmployee(e))
	}
	return result, nil
}

func cloneEmployee(e *employee.Employee) *employee.Employee {
	copy := *e
	return &copy
}
