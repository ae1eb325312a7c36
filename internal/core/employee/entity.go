package employee

import "time"

// Language は社員の利用言語を表します。
type Language string

const (
	LanguageDE Language = "de"
	LanguageEN Language = "en"
	LanguageFR Language = "fr"
	LanguageIT Language = "it"
)

// Employee は社員エンティティです。
type Employee struct {
	ID            string
	CompanyID     string
	Name          string
	Surname       string
	Email         string
	Language      Language
	WorksRemotely bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName は表示用の氏名を返します。
func (e *Employee) FullName() string {
	if e.Surname == "" {
		return e.Name
	}
	return e.Name + " " + e.Surname
}
