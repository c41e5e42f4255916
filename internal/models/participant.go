package models

import "time"

// Roles a participant may declare on join. Roles are self-declared by the
// client and not verified.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Participant is a connected user in the classroom session.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	ClientID string    `json:"-"` // WebSocket connection handle
	JoinedAt time.Time `json:"joinedAt"`
}

// IsTeacher reports whether the participant declared the teacher role.
func (p *Participant) IsTeacher() bool {
	return p.Role == RoleTeacher
}
