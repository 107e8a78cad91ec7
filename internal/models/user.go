package models

import "time"

// User is a registered account. Users own boards and join others through invite codes.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}
