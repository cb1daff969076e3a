package models

import "time"

// Action is a user-performed action on a delivered notification.
type Action struct {
	EntryID     int       `json:"entry_id"`
	ActionID    string    `json:"action_id"`
	Entry       Entry     `json:"entry"`
	PerformedAt time.Time `json:"performed_at"`
}

// Delivery records what happened to an entry when it left the pending set.
type Delivery struct {
	ID       string    `json:"id"`
	EntryID  int       `json:"entry_id"`
	Category Category  `json:"category,omitempty"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}
