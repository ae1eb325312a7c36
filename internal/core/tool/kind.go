package tool

import (
	"errors"

	"github.com/ogurasousui/planner-assistant/internal/core/assignment"
	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
)

// Kind は利用者向けに区別するエラーの種類です。
type Kind string

const (
	KindNone             Kind = ""
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindInvalidRange     Kind = "invalid_range"
	KindWeekend          Kind = "weekend"
	KindLocationMismatch Kind = "location_mismatch"
	KindMissingParameter Kind = "missing_parameter"
	KindUnsupported      Kind = "unsupported"
	KindInvalidArgument  Kind = "invalid_argument"
	KindInternal         Kind = "internal"
)

var kindTable = []struct {
	kind Kind
	errs []error
}{
	{KindMissingParameter, []error{ErrMissingParameter}},
	{KindUnsupported, []error{ErrUnknownTool}},
	{KindNotFound, []error{
		employee.ErrEmployeeNotFound,
		project.ErrProjectNotFound,
		assignment.ErrAssignmentNotFound,
		schedule.ErrUnknownEmployee,
		schedule.ErrUnknownProject,
		schedule.ErrNoEligibleProject,
	}},
	{KindWeekend, []error{schedule.ErrWeekend}},
	{KindConflict, []error{project.ErrNameAlreadyExists, schedule.ErrDoubleBooked}},
	{KindLocationMismatch, []error{schedule.ErrLocationMismatch}},
	{KindInvalidRange, []error{calendar.ErrInvalidRange, calendar.ErrNegativeDayCount, schedule.ErrSpanTooLong}},
	{KindInvalidArgument, []error{
		ErrInvalidArgument,
		calendar.ErrInvalidDate,
		calendar.ErrDayCountTooLarge,
		schedule.ErrEmptyBatch,
		employee.ErrInvalidID,
		employee.ErrInvalidCompanyID,
		employee.ErrInvalidName,
		employee.ErrInvalidSurname,
		employee.ErrInvalidEmail,
		employee.ErrInvalidLanguage,
		project.ErrInvalidID,
		project.ErrInvalidCompanyID,
		project.ErrInvalidName,
		project.ErrInvalidColor,
		assignment.ErrInvalidID,
		assignment.ErrInvalidCompanyID,
		assignment.ErrInvalidEmployeeID,
		assignment.ErrInvalidProjectID,
		assignment.ErrInvalidDate,
		conversation.ErrInvalidSessionID,
		conversation.ErrInvalidSender,
	}},
}

// Classify はエラーを種類に分類します。バッチの検証エラーは最初の違反で分類します。
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var batchErr *schedule.BatchError
	if errors.As(err, &batchErr) && len(batchErr.Violations) > 0 {
		return Classify(batchErr.Violations[0])
	}

	for _, entry := range kindTable {
		for _, target := range entry.errs {
			if errors.Is(err, target) {
				return entry.kind
			}
		}
	}
	return KindInternal
}
