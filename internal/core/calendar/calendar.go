// Package calendar は日付単位のスケジュール計算を提供します。
// 日付はすべて UTC の 00:00 に正規化した time.Time で扱います。
package calendar

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout は外部とやり取りする日付の書式です。
const DateLayout = "2006-01-02"

// HoursPerWorkingDay は 1 稼働日あたりの労働時間です。
const HoursPerWorkingDay = 8

// MaxDayCount は労働時間に換算できる日数の上限です。
const MaxDayCount = math.MaxInt / HoursPerWorkingDay

const secondsPerDay = 24 * 60 * 60

var (
	// ErrInvalidRange は終了日が開始日より前の場合に返却されます。
	ErrInvalidRange = errors.New("calendar: end date precedes start date")
	// ErrNegativeDayCount は日数が負の場合に返却されます。
	ErrNegativeDayCount = errors.New("calendar: day count must not be negative")
	// ErrInvalidDate は日付の書式が不正な場合に返却されます。
	ErrInvalidDate = errors.New("calendar: invalid date, expected YYYY-MM-DD")
	// ErrDayCountTooLarge は日数が MaxDayCount を超える場合に返却されます。
	ErrDayCountTooLarge = errors.New("calendar: day count too large")
)

// Normalize は時刻成分を落として UTC の日付に揃えます。
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse は YYYY-MM-DD 形式の文字列を日付に変換します。
func Parse(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.ParseInLocation(DateLayout, trimmed, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", trimmed, ErrInvalidDate)
	}
	return t, nil
}

// Format は日付を YYYY-MM-DD 形式に整形します。
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// IsWeekend は土曜日または日曜日かどうかを返します。
func IsWeekend(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// WeekBounds は指定日を含む週の月曜日と日曜日を返します。
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := Normalize(t)
	// time.Weekday は日曜日が 0 のため月曜始まりに読み替える。
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// SpanDays は開始日と終了日を含む暦日数を返します。
// time.Duration の範囲を超える期間も扱えるよう Unix 秒で数えます。
func SpanDays(start, end time.Time) (int, error) {
	s, e := Normalize(start), Normalize(end)
	if e.Before(s) {
		return 0, ErrInvalidRange
	}
	return int((e.Unix()-s.Unix())/secondsPerDay) + 1, nil
}

// Days は開始日から終了日までの日付を昇順で返します。
func Days(start, end time.Time) ([]time.Time, error) {
	n, err := SpanDays(start, end)
	if err != nil {
		return nil, err
	}
	s := Normalize(start)
	days := make([]time.Time, 0, n)
	for i := range n {
		days = append(days, s.AddDate(0, 0, i))
	}
	return days, nil
}

// WorkingDaysBetween は期間内 (両端含む) の月曜日から金曜日の日数を返します。
func WorkingDaysBetween(start, end time.Time) (int, error) {
	n, err := SpanDays(start, end)
	if err != nil {
		return 0, err
	}

	count := n / 7 * 5
	first := Normalize(start).Weekday()
	for i := range n % 7 {
		switch (first + time.Weekday(i)) % 7 {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count, nil
}

// WorkingHoursBetween は期間内の稼働日数に 8 時間を掛けた値を返します。
func WorkingHoursBetween(start, end time.Time) (int, error) {
	days, err := WorkingDaysBetween(start, end)
	if err != nil {
		return 0, err
	}
	return WorkingHoursForDayCount(days)
}

// WorkingHoursForDayCount は稼働日数から労働時間を算出します。
func WorkingHoursForDayCount(days int) (int, error) {
	if days < 0 {
		return 0, ErrNegativeDayCount
	}
	if days > MaxDayCount {
		return 0, fmt.Errorf("%d: %w", days, ErrDayCountTooLarge)
	}
	return days * HoursPerWorkingDay, nil
}
