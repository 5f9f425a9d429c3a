package model

type Reservation struct {
	Key              string `json:"key,omitempty"`
	BoothID          string `json:"boothId"`
	Name             string `json:"name"`
	StudentID        string `json:"studentId"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	TimeSlot         string `json:"timeSlot"`
	PartySize        int    `json:"partySize"`
	ReservationID    string `json:"reservationId,omitempty"`
	Status           string `json:"status,omitempty"`
	RequestEmail     bool   `json:"requestEmail,omitempty"`
	RequestTimestamp int64  `json:"requestTimestamp,omitempty"`
	EmailQueuedAt    int64  `json:"emailQueuedAt,omitempty"`
	EmailSentAt      int64  `json:"emailSentAt,omitempty"`
}

// DisplayID is the id shown to admins: the issued reservation id or the
// first eight characters of the store key.
func (r Reservation) DisplayID() string {
	if r.ReservationID != "" {
		return r.ReservationID
	}
	if len(r.Key) > 8 {
		return r.Key[:8]
	}
	return r.Key
}

type ReservationResponse struct {
	Key       string `json:"key"`
	DisplayID string `json:"display_id"`
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	TimeSlot  string `json:"time_slot"`
	PartySize int    `json:"party_size"`
	Status    string `json:"status"`
}

type ListReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}
