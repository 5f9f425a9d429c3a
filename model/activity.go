package model

import "time"

const (
	ActivityTicketIssued   = "ticket_issued"
	ActivityCallNext       = "call_next"
	ActivityQueueReset     = "queue_reset"
	ActivityEntryStatus    = "entry_status"
	ActivityCheckIn        = "check_in"
	ActivityEmailRequested = "email_requested"
	ActivityEmailSent      = "email_sent"
)

type ActivityEventMessage struct {
	BoothID    string `json:"booth_id"`
	Action     string `json:"action"`
	Subject    string `json:"subject,omitempty"`
	Number     int64  `json:"number,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Actor      string `json:"actor,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

type Activity struct {
	ID         int64     `json:"id"`
	BoothID    string    `json:"booth_id"`
	Action     string    `json:"action"`
	Subject    string    `json:"subject,omitempty"`
	Number     int64     `json:"number,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ListActivitiesResponse struct {
	Activities []Activity `json:"activities"`
}
