package employee

import "errors"

var (
	ErrInvalidID        = errors.New("employee: invalid id")
	ErrInvalidCompanyID = errors.New("employee: invalid company id")
	ErrInvalidName      = errors.New("employee: invalid name")
	ErrInvalidSurname   = errors.New("employee: invalid surname")
	ErrInvalidEmail     = errors.New("employee: invalid email")
	ErrInvalidLanguage  = errors.New("employee: invalid language")
	ErrEmployeeNotFound = errors.New("employee: not found")
)
