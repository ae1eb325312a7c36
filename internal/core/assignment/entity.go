package assignment

import (
	"time"

	"github.com/ogurasousui/planner-assistant/internal/core/schedule"
)

// Assignment は社員を特定の日にプロジェクトへ割り当てた記録です。
// Date は UTC の 00:00 に正規化された日付です。
type Assignment struct {
	ID         string
	CompanyID  string
	EmployeeID string
	ProjectID  string
	Date       time.Time
	CreatedAt  time.Time
}

// Booking は検証用の表現に変換します。
func (a *Assignment) Booking() schedule.Booking {
	return schedule.Booking{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		ProjectID:  a.ProjectID,
		Date:       a.Date,
	}
}
