package models

// Slot is a candidate appointment offering, not yet booked. Slots shown to
// the user in one turn are the list the next turn's follow-up resolves
// against, so the field set stays small and serializable.
type Slot struct {
	Date      string `json:"date"` // ISO date, e.g. "2025-08-01"
	Time      string `json:"time"` // clock label, e.g. "9:00 AM"
	Doctor    string `json:"doctor"`
	Specialty string `json:"specialty"`
	Available bool   `json:"available"`
}

// AppointmentBooking is a confirmed reservation against one specific slot.
type AppointmentBooking struct {
	AppointmentID   string          `json:"appointment_id"`
	PatientID       string          `json:"patient_id"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	Doctor          string          `json:"doctor"`
	Specialty       string          `json:"specialty"`
	AppointmentType AppointmentType `json:"appointment_type"`
	Confirmed       bool            `json:"confirmed"`
}

// BookingData is the slot-engine stage payload.
type BookingData struct {
	AvailableSlots []Slot              `json:"available_slots"`
	Booking        *AppointmentBooking `json:"booking,omitempty"`
	NextAvailable  string              `json:"next_available,omitempty"`
}
