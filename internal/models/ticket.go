package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "Low"
	PriorityMedium TicketPriority = "Medium"
	PriorityHigh   TicketPriority = "High"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "InProgress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

var ValidTicketPriorities = map[TicketPriority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true,
}

// TicketStatusRank orders the linear ticket lifecycle. Forward moves go to
// a strictly higher rank.
var TicketStatusRank = map[TicketStatus]int{
	TicketOpen:       0,
	TicketInProgress: 1,
	TicketResolved:   2,
	TicketClosed:     3,
}

type Comment struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"author_email"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

// Ticket is a support request raised by any staff member.
type Ticket struct {
	ID          uuid.UUID                       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DisplayID   string                          `gorm:"size:20;not null;uniqueIndex" json:"display_id"`
	Subject     string                          `gorm:"size:255;not null" json:"subject"`
	Description string                          `gorm:"type:text;not null" json:"description"`
	Priority    TicketPriority                  `gorm:"size:10;not null;index" json:"priority"`
	Status      TicketStatus                    `gorm:"size:20;not null;default:'Open';index" json:"status"`
	UserID      string                          `gorm:"size:255;not null;index" json:"user_id"`
	UserName    string                          `gorm:"size:255" json:"user_name"`
	Attachments datatypes.JSONSlice[Attachment] `gorm:"type:jsonb" json:"attachments"`
	Comments    datatypes.JSONSlice[Comment]    `gorm:"type:jsonb" json:"comments"`
	CreatedAt   time.Time                       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// TicketDisplayID derives the human-facing identifier from the storage key.
func TicketDisplayID(id uuid.UUID) string {
	return "TKT-" + shortID(id)
}
