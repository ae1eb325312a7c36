package tool

import (
	"context"
	"fmt"

	"github.com/ogurasousui/planner-assistant/internal/core/employee"
)

func employeeTools(uc employee.UseCase) []Tool {
	return []Tool{
		{
			Name:        "create-employee",
			Description: "Create an employee.",
			Params: []Param{
				required("name", TypeString, "first name"),
				required("surname", TypeString, "surname"),
				required("email", TypeString, "email address"),
				optional("language", TypeString, "language (de, en, fr, it)"),
				optional("worksRemotely", TypeBool, "whether the employee works remotely"),
			},
			Mutates: true,
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				name, err := args.String("name")
				if err != nil {
					return nil, err
				}
				surname, err := args.String("surname")
				if err != nil {
					return nil, err
				}
				email, err := args.String("email")
				if err != nil {
					return nil, err
				}
				lang, err := optionalLanguage(args)
				if err != nil {
					return nil, err
				}
				remote, err := args.OptionalBool("worksRemotely")
				if err != nil {
					return nil, err
				}
				created, err := uc.CreateEmployee(ctx, employee.CreateEmployeeInput{
					CompanyID:     CompanyIDFromContext(ctx),
					Name:          name,
					Surname:       surname,
					Email:         email,
					Language:      lang,
					WorksRemotely: remote,
				})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Created employee %s (%s).", created.FullName(), created.ID),
					Records: []map[string]any{employeeRecord(created)},
				}, nil
			},
		},
		{
			Name:        "update-employee",
			Description: "Change the given fields of an employee; omitted fields stay unchanged.",
			Params: []Param{
				required("employeeId", TypeString, "employee"),
				optional("name", TypeString, "first name"),
				optional("surname", TypeString, "surname"),
				optional("email", TypeString, "email address"),
				optional("language", TypeString, "language (de, en, fr, it)"),
				optional("worksRemotely", TypeBool, "whether the employee works remotely"),
			},
			Mutates: true,
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				id, err := args.String("employeeId")
				if err != nil {
					return nil, err
				}
				in := employee.UpdateEmployeeInput{ID: id, CompanyID: CompanyIDFromContext(ctx)}
				if in.Name, err = args.OptionalString("name"); err != nil {
					return nil, err
				}
				if in.Surname, err = args.OptionalString("surname"); err != nil {
					return nil, err
				}
				if in.Email, err = args.OptionalString("email"); err != nil {
					return nil, err
				}
				if in.Language, err = optionalLanguage(args); err != nil {
					return nil, err
				}
				if in.WorksRemotely, err = args.OptionalBool("worksRemotely"); err != nil {
					return nil, err
				}
				updated, err := uc.UpdateEmployee(ctx, in)
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Updated employee %s.", updated.FullName()),
					Records: []map[string]any{employeeRecord(updated)},
				}, nil
			},
		},
		{
			Name:        "delete-employee",
			Description: "Delete an employee together with all of their assignments.",
			Params: []Param{
				required("employeeId", TypeString, "employee"),
			},
			Mutates: true,
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				id, err := args.String("employeeId")
				if err != nil {
					return nil, err
				}
				result, err := uc.DeleteEmployee(ctx, employee.DeleteEmployeeInput{ID: id, CompanyID: CompanyIDFromContext(ctx)})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Deleted employee %s and %d assignment(s).", result.Employee.FullName(), len(result.RemovedAssignmentIDs)),
					Records: []map[string]any{employeeRecord(result.Employee)},
					Data:    map[string]any{"removedAssignmentIds": idsToAny(result.RemovedAssignmentIDs)},
				}, nil
			},
		},
		{
			Name:        "query-employees",
			Description: "List employees filtered by name, surname and remote status.",
			Params: []Param{
				optional("name", TypeString, "first name"),
				optional("surname", TypeString, "surname"),
				optional("worksRemotely", TypeBool, "remote status"),
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				in := employee.ListEmployeesInput{CompanyID: CompanyIDFromContext(ctx)}
				var err error
				if in.Name, err = args.OptionalString("name"); err != nil {
					return nil, err
				}
				if in.Surname, err = args.OptionalString("surname"); err != nil {
					return nil, err
				}
				if in.WorksRemotely, err = args.OptionalBool("worksRemotely"); err != nil {
					return nil, err
				}
				found, err := uc.ListEmployees(ctx, in)
				if err != nil {
					return nil, err
				}
				records := make([]map[string]any, 0, len(found))
				for _, e := range found {
					records = append(records, employeeRecord(e))
				}
				return &Result{Summary: fmt.Sprintf("Found %d employee(s).", len(found)), Records: records}, nil
			},
		},
		{
			Name:        "get-employee-by-id",
			Description: "Look up an employee by id.",
			Params: []Param{
				required("employeeId", TypeString, "employee"),
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				id, err := args.String("employeeId")
				if err != nil {
					return nil, err
				}
				found, err := uc.GetEmployee(ctx, employee.GetEmployeeInput{ID: id, CompanyID: CompanyIDFromContext(ctx)})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Employee %s (%s).", found.FullName(), found.ID),
					Records: []map[string]any{employeeRecord(found)},
				}, nil
			},
		},
		{
			Name:        "get-employee-by-name",
			Description: "Look up an employee by first name and surname.",
			Params: []Param{
				required("name", TypeString, "first name"),
				required("surname", TypeString, "surname"),
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				name, err := args.String("name")
				if err != nil {
					return nil, err
				}
				surname, err := args.String("surname")
				if err != nil {
					return nil, err
				}
				found, err := uc.FindEmployeeByName(ctx, employee.FindEmployeeByNameInput{
					CompanyID: CompanyIDFromContext(ctx),
					Name:      name,
					Surname:   surname,
				})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Employee %s (%s).", found.FullName(), found.ID),
					Records: []map[string]any{employeeRecord(found)},
				}, nil
			},
		},
	}
}

func optionalLanguage(args Args) (*employee.Language, error) {
	raw, err := args.OptionalString("language")
	if err != nil || raw == nil {
		return nil, err
	}
	lang := employee.Language(*raw)
	return &lang, nil
}
