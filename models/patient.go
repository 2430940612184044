package models

// Priority is the urgency tier used for both symptom severity and
// comorbidity risk. Comparisons go through Rank, not string order.
type Priority string

const (
	PriorityLow       Priority = "LOW"
	PriorityMedium    Priority = "MEDIUM"
	PriorityHigh      Priority = "HIGH"
	PriorityEmergency Priority = "EMERGENCY"
)

// Rank returns the ordinal position of the priority (LOW=0 .. EMERGENCY=3).
func (p Priority) Rank() int {
	switch p {
	case PriorityEmergency:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether p is at or above other in the urgency order.
func (p Priority) AtLeast(other Priority) bool {
	return p.Rank() >= other.Rank()
}

// AppointmentType classifies a booking.
type AppointmentType string

const (
	AppointmentGeneral    AppointmentType = "general"
	AppointmentEmergency  AppointmentType = "emergency"
	AppointmentFollowup   AppointmentType = "followup"
	AppointmentSpecialist AppointmentType = "specialist"
)

// PatientRequest is the payload coming from the frontend into /api/chat.
// It is immutable for the duration of a turn.
type PatientRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
	PatientID string `json:"patient_id,omitempty"`
}

// AgentResponse records the outcome of one workflow stage. One is appended
// per stage invoked within a turn.
type AgentResponse struct {
	AgentName   string      `json:"agent_name"`
	Message     string      `json:"message"`
	Confidence  float64     `json:"confidence"`
	ActionTaken string      `json:"action_taken,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// AppointmentResponse is the single consolidated response for a turn.
type AppointmentResponse struct {
	Message           string              `json:"message"`
	AgentResponses    []AgentResponse     `json:"agent_responses"`
	SymptomAnalysis   *SymptomAnalysis    `json:"symptom_analysis,omitempty"`
	ComorbidityRisk   *ComorbidityRisk    `json:"comorbidity_risk,omitempty"`
	AvailableSlots    []Slot              `json:"available_slots"`
	Booking           *AppointmentBooking `json:"booking,omitempty"`
	NextSteps         []string            `json:"next_steps"`
	RequiresEmergency bool                `json:"requires_emergency"`
	SessionID         string              `json:"session_id"`
}
