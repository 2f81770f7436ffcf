// Package queue defines message payloads exchanged over the message broker.
package queue

// LoginRecordedEvent is published after a login attempt has been
// written to the audit trail. It carries enough information for
// downstream consumers to log, alert, or feed analytics without
// querying the primary database. UserID is 0 when the matricule did
// not resolve to a user.
type LoginRecordedEvent struct {
	UserID     uint64 `json:"user_id"`
	Matricule  string `json:"matricule"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
	Successful bool   `json:"successful"`
	OccurredAt string `json:"occurred_at"`
}
