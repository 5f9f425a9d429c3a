package model

type SlotStatus struct {
	TimeLabel string `json:"time_label"`
	Remaining int    `json:"remaining"`
}

type WaitingRow struct {
	Key       string `json:"key"`
	Number    int64  `json:"number"`
	Name      string `json:"name"`
	PartySize int    `json:"party_size"`
	Time      string `json:"time"`
	Status    string `json:"status"`
}

// Dashboard is the render state of the admin view.
type Dashboard struct {
	BoothID      string       `json:"booth_id"`
	Title        string       `json:"title"`
	Slots        []SlotStatus `json:"slots"`
	CurrentCall  int64        `json:"current_call"`
	Waiting      []WaitingRow `json:"waiting"`
	WaitingCount int          `json:"waiting_count"`
}
