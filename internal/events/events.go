package events

import "encoding/json"

// BookingConfirmed is published after a booking commits. Delivery to the
// mail worker is at-least-once; consumers must tolerate replays.
type BookingConfirmed struct {
	BookingID   string `json:"bookingId"`
	PatientName string `json:"patientName"`
	Email       string `json:"email"`
	Treatment   string `json:"treatment"`
	AppointDate string `json:"appointDate"`
	Slot        string `json:"slot"`
}

func (e BookingConfirmed) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func UnmarshalBookingConfirmed(raw []byte) (BookingConfirmed, error) {
	var e BookingConfirmed
	err := json.Unmarshal(raw, &e)
	return e, err
}
