package constant

// Paths inside the realtime database.
const (
	PathBoothSlots       = "booths/%s/slots"
	PathBoothQueue       = "booths/%s/queue"
	PathBoothWaitingList = "booths/%s/queue/waiting_list"
	PathBoothEntry       = "booths/%s/queue/waiting_list/%s"
	PathBoothCurrentCall = "booths/%s/queue/current_call"
	PathBoothLastNumber  = "booths/%s/queue/last_number"
	PathReservations     = "reservations"
	PathReservation      = "reservations/%s"
)
