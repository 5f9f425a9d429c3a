package model

// Entry statuses. A new entry starts as waiting; admins move it to active
// (called in) or cancelled (no-show). completed is only written by flows
// outside this service. No transition deletes an entry.
const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusWaiting, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Queue is the per booth record at booths/{id}/queue.
type Queue struct {
	CurrentCall int64                   `json:"current_call"`
	LastNumber  int64                   `json:"last_number"`
	WaitingList map[string]WaitingEntry `json:"waiting_list,omitempty"`
}

type WaitingEntry struct {
	Key       string `json:"key,omitempty"`
	Number    int64  `json:"number"`
	Name      string `json:"name"`
	PartySize int    `json:"partySize"`
	Phone     string `json:"phone"`
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
}

type EntryData struct {
	Name      string `json:"name" validate:"required,max=100"`
	PartySize int    `json:"partySize" validate:"required,gt=0"`
	Phone     string `json:"phone" validate:"required"`
}

type IssueTicketResponse struct {
	Number int64 `json:"number"`
}

type CallNextResponse struct {
	CurrentCall int64 `json:"current_call"`
}

type ResetQueueRequest struct {
	Confirm bool `json:"confirm"`
}

type SetEntryStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=waiting active completed cancelled"`
}
