package models

import "time"

// Board is the top-level container for statuses and tickets.
// InviteCode is empty when no code is active.
type Board struct {
	ID         int       `json:"id"`
	OwnerID    int       `json:"ownerId"`
	Title      string    `json:"title"`
	Icon       string    `json:"icon,omitempty"`
	InviteCode string    `json:"inviteCode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BoardPage is one page of the boards a user belongs to.
type BoardPage struct {
	Boards    []*Board `json:"boards"`
	Total     int      `json:"total"`
	Page      int      `json:"page"`
	TotalPage int      `json:"totalPage"`
}

// StatusDetail is a status together with its live tickets in order.
type StatusDetail struct {
	Status
	Tickets []*Ticket `json:"tickets"`
}

// BoardDetail is the full view of a board as shown to a member.
type BoardDetail struct {
	Board     *Board          `json:"board"`
	Statuses  []*StatusDetail `json:"statuses"`
	MemberIDs []int           `json:"memberIds"`
}
