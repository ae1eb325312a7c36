package project

import "errors"

var (
	// ErrProjectNotFound はプロジェクトが存在しない場合に返却されます。
	ErrProjectNotFound = errors.New("project: not found")
	// ErrNameAlreadyExists は同一会社内でプロジェクト名が重複した場合に返却されます。
	ErrNameAlreadyExists = errors.New("project: name already exists")
	// ErrInvalidName はプロジェクト名が不正な場合に返却されます。
	ErrInvalidName = errors.New("project: invalid name")
	// ErrInvalidColor は表示色が HEX 形式でない場合に返却されます。
	ErrInvalidColor = errors.New("project: invalid color")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("project: invalid id")
	// ErrInvalidCompanyID は会社 ID が不正な場合に返却されます。
	ErrInvalidCompanyID = errors.New("project: invalid company id")
)
