package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/calendar"
)

func calendarTools() []Tool {
	return []Tool{
		{
			Name:        "week-bounds",
			Description: "Return the Monday and Sunday of the week containing a date.",
			Params:      []Param{required("date", TypeDate, "date")},
			Handler: func(_ context.Context, args Args) (*Result, error) {
				d, err := args.Date("date")
				if err != nil {
					return nil, err
				}
				monday, sunday := calendar.WeekBounds(d)
				return &Result{
					Summary: fmt.Sprintf("The week of %s runs from %s to %s.", calendar.Format(d), calendar.Format(monday), calendar.Format(sunday)),
					Data:    map[string]any{"monday": calendar.Format(monday), "sunday": calendar.Format(sunday)},
				}, nil
			},
		},
		{
			Name:        "is-weekend",
			Description: "Tell whether a date is a Saturday or Sunday.",
			Params:      []Param{required("date", TypeDate, "date")},
			Handler: func(_ context.Context, args Args) (*Result, error) {
				d, err := args.Date("date")
				if err != nil {
					return nil, err
				}
				weekend := calendar.IsWeekend(d)
				summary := fmt.Sprintf("%s is a working day.", calendar.Format(d))
				if weekend {
					summary = fmt.Sprintf("%s falls on a weekend.", calendar.Format(d))
				}
				return &Result{Summary: summary, Data: map[string]any{"weekend": weekend}}, nil
			},
		},
		{
			Name:        "working-days-between",
			Description: "Count Monday to Friday days in an inclusive range.",
			Params: []Param{
				required("startDate", TypeDate, "start date"),
				required("endDate", TypeDate, "end date"),
			},
			Handler: func(_ context.Context, args Args) (*Result, error) {
				start, end, err := dateRange(args)
				if err != nil {
					return nil, err
				}
				days, err := calendar.WorkingDaysBetween(start, end)
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("%d working day(s) between %s and %s.", days, calendar.Format(start), calendar.Format(end)),
					Data:    map[string]any{"workingDays": days},
				}, nil
			},
		},
		{
			Name:        "working-hours-between",
			Description: "Working hours (8 per working day) in an inclusive range.",
			Params: []Param{
				required("startDate", TypeDate, "start date"),
				required("endDate", TypeDate, "end date"),
			},
			Handler: func(_ context.Context, args Args) (*Result, error) {
				start, end, err := dateRange(args)
				if err != nil {
					return nil, err
				}
				hours, err := calendar.WorkingHoursBetween(start, end)
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("%d working hour(s) between %s and %s.", hours, calendar.Format(start), calendar.Format(end)),
					Data:    map[string]any{"workingHours": hours},
				}, nil
			},
		},
		{
			Name:        "working-hours-for-day-count",
			Description: "Working hours for a number of working days.",
			Params:      []Param{required("days", TypeInt, "number of days")},
			Handler: func(_ context.Context, args Args) (*Result, error) {
				days, err := args.Int("days")
				if err != nil {
					return nil, err
				}
				hours, err := calendar.WorkingHoursForDayCount(days)
				if err != nil {
					return nil, err
				}
				return &Result{
					Summary: fmt.Sprintf("%d working day(s) are %d working hour(s).", days, hours),
					Data:    map[string]any{"workingHours": hours},
				}, nil
			},
		},
	}
}

func dateRange(args Args) (start, end time.Time, err error) {
	if start, err = args.Date("startDate"); err != nil {
		return
	}
	end, err = args.Date("endDate")
	return
}
