package project

import "time"

// Project はプロジェクトエンティティです。
type Project struct {
	ID               string
	CompanyID        string
	Name             string
	Color            string
	MustBeOnPremises bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
