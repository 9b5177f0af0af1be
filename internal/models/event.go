package models

import "time"

// AccountEventType names an account lifecycle transition.
type AccountEventType string

const (
	EventAccountRegistered AccountEventType = "account.registered"
	EventAccountLogin      AccountEventType = "account.login"
	EventAccountDeleted    AccountEventType = "account.deleted"
)

// AccountEvent is the audit record published for each lifecycle transition.
type AccountEvent struct {
	ID         string           `json:"id"`
	Type       AccountEventType `json:"type"`
	Username   string           `json:"username"`
	IP         string           `json:"ip,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
