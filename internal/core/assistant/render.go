package assistant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ogurasousui/planner-assistant/internal/core/assignment"
	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
	"github.com/ogurasousui/planner-assistant/internal/core/tool"
)

// 利用者向けの文言はすべてここで組み立て、内部エラーの文字列をそのまま返さない。

func noToolMessage() string {
	return "I'm not sure what you would like me to do. I can manage employees, projects and assignments, " +
		"fill gaps in someone's schedule, or answer calendar questions such as working days between two dates."
}

func unknownToolMessage(name string) string {
	return fmt.Sprintf("I can't perform %q. I can manage employees, projects and assignments, fill schedule gaps, or answer calendar questions.", name)
}

func abortedMessage() string {
	return "The request was cancelled before it finished, so nothing was changed. Please try again."
}

func questionFor(def *tool.Tool, param tool.Param) string {
	label := param.Label
	if label == "" {
		label = param.Name
	}
	switch param.Type {
	case tool.TypeDate:
		return fmt.Sprintf("To %s, I still need the %s (YYYY-MM-DD).", describe(def), label)
	case tool.TypeBool:
		return fmt.Sprintf("To %s, please tell me %s (yes or no).", describe(def), label)
	case tool.TypeInt:
		return fmt.Sprintf("To %s, I still need the %s.", describe(def), label)
	case tool.TypeList:
		return fmt.Sprintf("To %s, please give me the %s.", describe(def), label)
	default:
		return fmt.Sprintf("To %s, which %s do you mean?", describe(def), label)
	}
}

func describe(def *tool.Tool) string {
	return strings.ReplaceAll(def.Name, "-", " ")
}

// explain はエラーの種類と検証結果から説明文を組み立てます。
func explain(err error) string {
	var batchErr *schedule.BatchError
	if errors.As(err, &batchErr) && len(batchErr.Violations) > 0 {
		first := explainViolation(batchErr.Violations[0])
		if len(batchErr.Violations) == 1 {
			return "Nothing was saved. " + first
		}
		return fmt.Sprintf("Nothing was saved; %d entries break the scheduling rules. First problem: %s", len(batchErr.Violations), first)
	}

	var v *schedule.Violation
	if errors.As(err, &v) {
		return explainViolation(v)
	}

	var spanErr *schedule.SpanError
	if errors.As(err, &spanErr) {
		return fmt.Sprintf("A single request may cover at most %d days, but %s to %s covers %d days. Please split it up.",
			schedule.MaxRequestDays, calendar.Format(spanErr.From), calendar.Format(spanErr.To), spanErr.Days)
	}

	var missing *tool.MissingParameterError
	if errors.As(err, &missing) {
		return fmt.Sprintf("I still need the %s.", missing.Param)
	}

	switch {
	case errors.Is(err, calendar.ErrInvalidRange):
		return "The end date must not be before the start date."
	case errors.Is(err, calendar.ErrNegativeDayCount):
		return "The number of days must not be negative."
	case errors.Is(err, calendar.ErrInvalidDate):
		return "Dates have to be given as YYYY-MM-DD."
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return "I couldn't find that employee."
	case errors.Is(err, project.ErrProjectNotFound):
		return "I couldn't find that project."
	case errors.Is(err, assignment.ErrAssignmentNotFound):
		return "I couldn't find that assignment."
	case errors.Is(err, schedule.ErrNoEligibleProject):
		return "There is no project this employee is allowed to work on, so no gaps could be filled."
	case errors.Is(err, project.ErrNameAlreadyExists):
		return "A project with that name already exists in your company."
	case errors.Is(err, schedule.ErrDoubleBooked):
		return "The employee is already assigned to a project on that day."
	case errors.Is(err, employee.ErrInvalidEmail):
		return "That email address doesn't look valid."
	case errors.Is(err, employee.ErrInvalidLanguage):
		return "The language must be one of de, en, fr or it."
	case errors.Is(err, project.ErrInvalidColor):
		return "The colour must be a hex value such as #3F51B5."
	case errors.Is(err, employee.ErrInvalidCompanyID), errors.Is(err, project.ErrInvalidCompanyID), errors.Is(err, assignment.ErrInvalidCompanyID):
		return "I don't know which company this request belongs to."
	}

	switch tool.Classify(err) {
	case tool.KindInvalidArgument:
		return "Some of the details you gave are not in a format I understand. Please check names, dates and yes/no answers."
	case tool.KindUnsupported:
		return "I can't perform that action."
	default:
		return "Sorry, something went wrong while handling your request. Nothing was changed."
	}
}

func explainViolation(v *schedule.Violation) string {
	c := v.Candidate
	day := calendar.Format(c.Date)
	switch v.Rule {
	case schedule.RuleReferentialIntegrity:
		if errors.Is(v, schedule.ErrUnknownEmployee) {
			return fmt.Sprintf("Employee %s does not exist.", c.EmployeeID)
		}
		return fmt.Sprintf("Project %s does not exist.", c.ProjectID)
	case schedule.RuleNoWeekend:
		return fmt.Sprintf("%s is a %s; assignments are only possible from Monday to Friday.", day, c.Date.Weekday())
	case schedule.RuleNoDoubleBooking:
		if v.Conflict != nil && v.Conflict.Booking != nil {
			return fmt.Sprintf("Employee %s is already assigned to project %s on %s.", c.EmployeeID, v.Conflict.Booking.ProjectID, day)
		}
		if v.Conflict != nil {
			return fmt.Sprintf("Entry %d would book employee %s a second time on %s (already requested by entry %d).",
				v.Index+1, c.EmployeeID, day, v.Conflict.BatchIndex+1)
		}
		return fmt.Sprintf("Employee %s is already assigned on %s.", c.EmployeeID, day)
	case schedule.RuleLocation:
		return fmt.Sprintf("Employee %s works remotely and cannot be assigned to project %s, which must be worked on premises.", c.EmployeeID, c.ProjectID)
	default:
		return "The assignment breaks a scheduling rule."
	}
}
