package tool

import (
	"github.com/ogurasousui/planner-assistant/internal/core/assignment"
	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
)

// Dependencies はカタログのツールが委譲するユースケースです。
type Dependencies struct {
	Employees   employee.UseCase
	Projects    project.UseCase
	Assignments assignment.UseCase
}

// NewCatalog はすべてのツールを登録したカタログを組み立てます。
func NewCatalog(deps Dependencies) (*Registry, error) {
	var tools []Tool
	tools = append(tools, assignmentTools(deps.Assignments)...)
	tools = append(tools, employeeTools(deps.Employees)...)
	tools = append(tools, projectTools(deps.Projects)...)
	tools = append(tools, calendarTools()...)
	return NewRegistry(tools...)
}

func required(name string, typ ParamType, label string) Param {
	return Param{Name: name, Type: typ, Required: true, Label: label}
}

func optional(name string, typ ParamType, label string) Param {
	return Param{Name: name, Type: typ, Label: label}
}

func employeeRecord(e *employee.Employee) map[string]any {
	return map[string]any{
		"id":            e.ID,
		"name":          e.Name,
		"surname":       e.Surname,
		"email":         e.Email,
		"language":      string(e.Language),
		"worksRemotely": e.WorksRemotely,
	}
}

func projectRecord(p *project.Project) map[string]any {
	return map[string]any{
		"id":               p.ID,
		"name":             p.Name,
		"color":            p.Color,
		"mustBeOnPremises": p.MustBeOnPremises,
	}
}

func assignmentRecord(a *assignment.Assignment) map[string]any {
	return map[string]any{
		"id":         a.ID,
		"employeeId": a.EmployeeID,
		"projectId":  a.ProjectID,
		"date":       calendar.Format(a.Date),
	}
}

func idsToAny(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}
