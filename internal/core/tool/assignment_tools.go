package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/ogurasousui/planner-assistant/internal/core/assignment"
	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
)

func assignmentTools(uc assignment.UseCase) []Tool {
	return []Tool{
		{
			Name:        "create-assignment",
			Description: "Assign an employee to a project on one working day.",
			Params: []Param{
				required("employeeId", TypeString, "employee"),
				required("projectId", TypeString, "project"),
				required("date", TypeDate, "date"),
			},
			Mutates: true,
			Validate: func(ctx context.Context, args Args) error {
				in, err := parseSingleAssignment(ctx, args)
				if err != nil {
					return err
				}
				return firstViolation(uc.CheckAssignments(ctx, in))
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				in, err := parseSingleAssignment(ctx, args)
				if err != nil {
					return nil, err
				}
				draft := in.Items[0]
				created, err := uc.CreateAssignment(ctx, assignment.CreateAssignmentInput{
					CompanyID:  in.CompanyID,
					EmployeeID: draft.EmployeeID,
					ProjectID:  draft.ProjectID,
					Date:       draft.Date,
				})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Assigned employee %s to project %s on %s.", created.EmployeeID, created.ProjectID, calendar.Format(created.Date)),
					Records: []map[string]any{assignmentRecord(created)},
				}, nil
			},
		},
		{
			Name:        "create-assignments-batch",
			Description: "Create several assignments at once; either all of them are stored or none.",
			Params: []Param{
				required("assignments", TypeList, "list of assignments (employeeId, projectId, date)"),
			},
			Mutates: true,
			Validate: func(ctx context.Context, args Args) error {
				in, err := parseBatch(ctx, args)
				if err != nil {
					return err
				}
				return uc.CheckAssignments(ctx, in)
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				in, err := parseBatch(ctx, args)
				if err != nil {
					return nil, err
				}
				created, err := uc.CreateAssignments(ctx, in)
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Created %d assignment(s).", len(created)),
					Records: assignmentRecords(created),
				}, nil
			},
		},
		{
			Name:        "update-assignment",
			Description: "Move an assignment to another employee, project or day.",
			Params: []Param{
				required("assignmentId", TypeString, "assignment"),
				optional("employeeId", TypeString, "employee"),
				optional("projectId", TypeString, "project"),
				optional("date", TypeDate, "date"),
			},
			Mutates: true,
			Validate: func(ctx context.Context, args Args) error {
				in, err := parseAssignmentUpdate(ctx, args)
				if err != nil {
					return err
				}
				return uc.CheckAssignmentUpdate(ctx, in)
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				in, err := parseAssignmentUpdate(ctx, args)
				if err != nil {
					return nil, err
				}
				updated, err := uc.UpdateAssignment(ctx, in)
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Updated assignment %s: employee %s, project %s, %s.", updated.ID, updated.EmployeeID, updated.ProjectID, calendar.Format(updated.Date)),
					Records: []map[string]any{assignmentRecord(updated)},
				}, nil
			},
		},
		{
			Name:        "delete-assignment",
			Description: "Delete an assignment.",
			Params: []Param{
				required("assignmentId", TypeString, "assignment"),
			},
			Mutates: true,
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				id, err := args.String("assignmentId")
				if err != nil {
					return nil, err
				}
				deleted, err := uc.DeleteAssignment(ctx, assignment.DeleteAssignmentInput{ID: id, CompanyID: CompanyIDFromContext(ctx)})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Deleted assignment %s.", deleted.ID),
					Records: []map[string]any{assignmentRecord(deleted)},
				}, nil
			},
		},
		{
			Name:        "query-assignments",
			Description: "List assignments filtered by employee, project and an inclusive date range.",
			Params: []Param{
				optional("employeeId", TypeString, "employee"),
				optional("projectId", TypeString, "project"),
				optional("startDate", TypeDate, "start date"),
				optional("endDate", TypeDate, "end date"),
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				employeeID, err := args.OptionalString("employeeId")
				if err != nil {
					return nil, err
				}
				projectID, err := args.OptionalString("projectId")
				if err != nil {
					return nil, err
				}
				from, err := args.OptionalDate("startDate")
				if err != nil {
					return nil, err
				}
				to, err := args.OptionalDate("endDate")
				if err != nil {
					return nil, err
				}
				found, err := uc.ListAssignments(ctx, assignment.ListAssignmentsInput{
					CompanyID:  CompanyIDFromContext(ctx),
					EmployeeID: employeeID,
					ProjectID:  projectID,
					From:       from,
					To:         to,
				})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Found %d assignment(s).", len(found)),
					Records: assignmentRecords(found),
				}, nil
			},
		},
		{
			Name:        "fill-gaps",
			Description: "Fill every unassigned weekday of an employee in a range of at most 7 days.",
			Params: []Param{
				required("employeeId", TypeString, "employee"),
				required("startDate", TypeDate, "start date"),
				required("endDate", TypeDate, "end date"),
			},
			Mutates: true,
			Validate: func(ctx context.Context, args Args) error {
				in, err := parseFillGaps(ctx, args)
				if err != nil {
					return err
				}
				in.DryRun = true
				_, err = uc.FillGaps(ctx, in)
				return err
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				in, err := parseFillGaps(ctx, args)
				if err != nil {
					return nil, err
				}
				result, err := uc.FillGaps(ctx, in)
				if err != nil {
					return nil, err
				}
				records := assignmentRecords(result.Created)
				for i := range records {
					if i < len(result.Picks) {
						records[i]["basis"] = string(result.Picks[i].Basis)
					}
				}
				summary := fmt.Sprintf("Filled %d gap day(s) for employee %s.", len(result.Created), in.EmployeeID)
				if len(result.Created) == 0 {
					summary = fmt.Sprintf("Employee %s has no unassigned working days between %s and %s.", in.EmployeeID, calendar.Format(in.From), calendar.Format(in.To))
				}
				return &Result{Summary: summary, Records: records}, nil
			},
		},
	}
}

func parseSingleAssignment(ctx context.Context, args Args) (assignment.CreateAssignmentsInput, error) {
	draft, err := parseDraft(args)
	if err != nil {
		return assignment.CreateAssignmentsInput{}, err
	}
	return assignment.CreateAssignmentsInput{
		CompanyID: CompanyIDFromContext(ctx),
		Items:     []assignment.Draft{draft},
	}, nil
}

func parseBatch(ctx context.Context, args Args) (assignment.CreateAssignmentsInput, error) {
	items, err := args.Objects("assignments")
	if err != nil {
		return assignment.CreateAssignmentsInput{}, err
	}
	drafts := make([]assignment.Draft, 0, len(items))
	for i, item := range items {
		draft, err := parseDraft(item)
		if err != nil {
			return assignment.CreateAssignmentsInput{}, fmt.Errorf("assignments[%d]: %w", i, err)
		}
		drafts = append(drafts, draft)
	}
	return assignment.CreateAssignmentsInput{CompanyID: CompanyIDFromContext(ctx), Items: drafts}, nil
}

func parseDraft(args Args) (assignment.Draft, error) {
	employeeID, err := args.String("employeeId")
	if err != nil {
		return assignment.Draft{}, err
	}
	projectID, err := args.String("projectId")
	if err != nil {
		return assignment.Draft{}, err
	}
	date, err := args.Date("date")
	if err != nil {
		return assignment.Draft{}, err
	}
	return assignment.Draft{EmployeeID: employeeID, ProjectID: projectID, Date: date}, nil
}

func parseAssignmentUpdate(ctx context.Context, args Args) (assignment.UpdateAssignmentInput, error) {
	id, err := args.String("assignmentId")
	if err != nil {
		return assignment.UpdateAssignmentInput{}, err
	}
	employeeID, err := args.OptionalString("employeeId")
	if err != nil {
		return assignment.UpdateAssignmentInput{}, err
	}
	projectID, err := args.OptionalString("projectId")
	if err != nil {
		return assignment.UpdateAssignmentInput{}, err
	}
	date, err := args.OptionalDate("date")
	if err != nil {
		return assignment.UpdateAssignmentInput{}, err
	}
	return assignment.UpdateAssignmentInput{
		ID:         id,
		CompanyID:  CompanyIDFromContext(ctx),
		EmployeeID: employeeID,
		ProjectID:  projectID,
		Date:       date,
	}, nil
}

func parseFillGaps(ctx context.Context, args Args) (assignment.FillGapsInput, error) {
	employeeID, err := args.String("employeeId")
	if err != nil {
		return assignment.FillGapsInput{}, err
	}
	from, err := args.Date("startDate")
	if err != nil {
		return assignment.FillGapsInput{}, err
	}
	to, err := args.Date("endDate")
	if err != nil {
		return assignment.FillGapsInput{}, err
	}
	return assignment.FillGapsInput{
		CompanyID:  CompanyIDFromContext(ctx),
		EmployeeID: employeeID,
		From:       from,
		To:         to,
	}, nil
}

func assignmentRecords(assignments []*assignment.Assignment) []map[string]any {
	records := make([]map[string]any, 0, len(assignments))
	for _, a := range assignments {
		records = append(records, assignmentRecord(a))
	}
	return records
}

func firstViolation(err error) error {
	var batchErr *schedule.BatchError
	if errors.As(err, &batchErr) && len(batchErr.Violations) == 1 {
		return batchErr.Violations[0]
	}
	return err
}
