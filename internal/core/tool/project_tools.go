package tool

import (
	"context"
	"fmt"

	"github.com/ogurasousui/planner-assistant/internal/core/project"
)

func projectTools(uc project.UseCase) []Tool {
	return []Tool{
		{
			Name:        "create-project",
			Description: "Create a project; names are unique within the company.",
			Params: []Param{
				required("name", TypeString, "project name"),
				required("color", TypeString, "display colour (hex, e.g. #3F51B5)"),
				optional("mustBeOnPremises", TypeBool, "whether the project requires on-premises work"),
			},
			Mutates: true,
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				name, err := args.String("name")
				if err != nil {
					return nil, err
				}
				color, err := args.String("color")
				if err != nil {
					return nil, err
				}
				onPremises, err := args.OptionalBool("mustBeOnPremises")
				if err != nil {
					return nil, err
				}
				created, err := uc.CreateProject(ctx, project.CreateProjectInput{
					CompanyID:        CompanyIDFromContext(ctx),
					Name:             name,
					Color:            color,
					MustBeOnPremises: onPremises,
				})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Created project %s (%s).", created.Name, created.ID),
					Records: []map[string]any{projectRecord(created)},
				}, nil
			},
		},
		{
			Name:        "update-project",
			Description: "Change the given fields of a project; omitted fields stay unchanged.",
			Params: []Param{
				required("projectId", TypeString, "project"),
				optional("name", TypeString, "project name"),
				optional("color", TypeString, "display colour"),
				optional("mustBeOnPremises", TypeBool, "whether the project requires on-premises work"),
			},
			Mutates: true,
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				id, err := args.String("projectId")
				if err != nil {
					return nil, err
				}
				in := project.UpdateProjectInput{ID: id, CompanyID: CompanyIDFromContext(ctx)}
				if in.Name, err = args.OptionalString("name"); err != nil {
					return nil, err
				}
				if in.Color, err = args.OptionalString("color"); err != nil {
					return nil, err
				}
				if in.MustBeOnPremises, err = args.OptionalBool("mustBeOnPremises"); err != nil {
					return nil, err
				}
				updated, err := uc.UpdateProject(ctx, in)
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Updated project %s.", updated.Name),
					Records: []map[string]any{projectRecord(updated)},
				}, nil
			},
		},
		{
			Name:        "delete-project",
			Description: "Delete a project together with all of its assignments.",
			Params: []Param{
				required("projectId", TypeString, "project"),
			},
			Mutates: true,
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				id, err := args.String("projectId")
				if err != nil {
					return nil, err
				}
				result, err := uc.DeleteProject(ctx, project.DeleteProjectInput{ID: id, CompanyID: CompanyIDFromContext(ctx)})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Deleted project %s and %d assignment(s).", result.Project.Name, len(result.RemovedAssignmentIDs)),
					Records: []map[string]any{projectRecord(result.Project)},
					Data:    map[string]any{"removedAssignmentIds": idsToAny(result.RemovedAssignmentIDs)},
				}, nil
			},
		},
		{
			Name:        "query-projects",
			Description: "List projects filtered by name and on-premises requirement.",
			Params: []Param{
				optional("name", TypeString, "project name"),
				optional("mustBeOnPremises", TypeBool, "on-premises requirement"),
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				in := project.ListProjectsInput{CompanyID: CompanyIDFromContext(ctx)}
				var err error
				if in.Name, err = args.OptionalString("name"); err != nil {
					return nil, err
				}
				if in.MustBeOnPremises, err = args.OptionalBool("mustBeOnPremises"); err != nil {
					return nil, err
				}
				found, err := uc.ListProjects(ctx, in)
				if err != nil {
					return nil, err
				}
				records := make([]map[string]any, 0, len(found))
				for _, p := range found {
					records = append(records, projectRecord(p))
				}
				return &Result{Summary: fmt.Sprintf("Found %d project(s).", len(found)), Records: records}, nil
			},
		},
		{
			Name:        "get-project-by-id",
			Description: "Look up a project by id.",
			Params: []Param{
				required("projectId", TypeString, "project"),
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				id, err := args.String("projectId")
				if err != nil {
					return nil, err
				}
				found, err := uc.GetProject(ctx, project.GetProjectInput{ID: id, CompanyID: CompanyIDFromContext(ctx)})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Project %s (%s).", found.Name, found.ID),
					Records: []map[string]any{projectRecord(found)},
				}, nil
			},
		},
		{
			Name:        "get-project-by-name",
			Description: "Look up a project by name.",
			Params: []Param{
				required("name", TypeString, "project name"),
			},
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				name, err := args.String("name")
				if err != nil {
					return nil, err
				}
				found, err := uc.FindProjectByName(ctx, project.FindProjectByNameInput{CompanyID: CompanyIDFromContext(ctx), Name: name})
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("Project %s (%s).", found.Name, found.ID),
					Records: []map[string]any{projectRecord(found)},
				}, nil
			},
		},
	}
}
