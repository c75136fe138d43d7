package tenant

import (
	"errors"
	"time"
)

// Status enumerates access code lifecycle values.
type Status string

const (
	StatusTrial   Status = "trial"
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// AccessCode identifies one kitchen. Every other record in the system hangs
// off its ID; an expired code keeps its data but loses access.
type AccessCode struct {
	ID          int64
	Code        string
	KitchenName string
	Status      Status
	StartAt     time.Time
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// ExpiredAt reports whether the validity window has passed at the given time.
func (a AccessCode) ExpiredAt(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// ErrInvalidStatus indicates an unsupported status value on create.
var ErrInvalidStatus = errors.New("tenant: status must be trial or active")
