package models

import "time"

// Login methods recorded in the audit trail
const (
	LoginMethodIdin     = "IdinLogin"
	LoginMethodRegister = "Register"
)

// LoginLog is the append-only audit row written once per authentication
// attempt that resolves successfully.
type LoginLog struct {
	ID      string `gorm:"primaryKey"`
	Address string `gorm:"index"` // caller's network address
	Method  string `gorm:"index"` // e.g. "IdinLogin"
	Status  string // HTTP-style status of the attempt, e.g. "200"

	CreatedAt time.Time `gorm:"index"`
}
