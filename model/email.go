package model

// EmailRequest is the body accepted by the mail endpoint.
type EmailRequest struct {
	To            string `json:"to"`
	Name          string `json:"name"`
	ReservationID string `json:"reservationId"`
	TimeSlot      string `json:"timeSlot"`
	BoothName     string `json:"boothName"`
}

type EmailErrorResponse struct {
	Message string `json:"message"`
}

type SendEmailEventMessage struct {
	ReservationKey string       `json:"reservation_key"`
	Email          EmailRequest `json:"email"`
}
