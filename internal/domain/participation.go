package domain

import "time"

// ParticipationStatus is the state of a member's stake in a group.
type ParticipationStatus string

const (
	ParticipationStatusPending  ParticipationStatus = "pending"
	ParticipationStatusApproved ParticipationStatus = "approved"
)

// Participation is one user's stake in one group. A user holds at most one
// Participation per group, the creator's included.
type Participation struct {
	ID        string
	GroupID   string
	UserID    string
	Slots     int64
	Status    ParticipationStatus
	Reference string
	JoinedAt  time.Time
}
