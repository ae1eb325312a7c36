package assignment

import "errors"

var (
	// ErrAssignmentNotFound はアサインが存在しない場合に返却されます。
	ErrAssignmentNotFound = errors.New("assignment: not found")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("assignment: invalid id")
	// ErrInvalidCompanyID は会社 ID が不正な場合に返却されます。
	ErrInvalidCompanyID = errors.New("assignment: invalid company id")
	// ErrInvalidEmployeeID は社員 ID が不正な場合に返却されます。
	ErrInvalidEmployeeID = errors.New("assignment: invalid employee id")
	// ErrInvalidProjectID はプロジェクト ID が不正な場合に返却されます。
	ErrInvalidProjectID = errors.New("assignment: invalid project id")
	// ErrInvalidDate は日付が指定されていない場合に返却されます。
	ErrInvalidDate = errors.New("assignment: invalid date")
)
