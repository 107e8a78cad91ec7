package models

import "time"

// Ticket is a card inside a status, ordered by Position.
type Ticket struct {
	ID        int        `json:"id"`
	BoardID   int        `json:"boardId"`
	StatusID  int        `json:"statusId"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Position  float64    `json:"position"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
