package models

import "time"

// ChatMessage is a free-text message relayed to all participants.
type ChatMessage struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Role      string    `json:"role,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
