package models

import (
	"time"

	"github.com/google/uuid"
)

// University is one entry on a user's application tracker: a school the
// user is applying to, with its deadline and estimated tuition.
type University struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"userId" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	City        string     `json:"city" db:"city"`
	ProgramName string     `json:"programName" db:"program_name"`
	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	Tuition     *float64   `json:"tuition,omitempty" db:"tuition"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}
