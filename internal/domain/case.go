package domain

import "time"

// Case is an insolvency case. OpeningDate is the estate cutoff: cash effects
// dated before it belong to the Altmasse by default.
type Case struct {
	ID          string
	Name        string
	OpeningDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Counterparty identifies the other side of a cash movement. Category is the
// payer class contract split rules key on (e.g. a statutory payer type).
type Counterparty struct {
	ID        string
	CaseID    string
	Name      string
	Category  string
	CreatedAt time.Time
}
