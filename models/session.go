package models

// MaxHistoryTurns caps the per-session conversation history; older turns are
// evicted before the context is persisted.
const MaxHistoryTurns = 10

// TurnRecord is one request/response exchange kept in the session history.
type TurnRecord struct {
	UserMessage       string          `json:"user_message"`
	AssistantResponse string          `json:"assistant_response"`
	Timestamp         string          `json:"timestamp"`
	AgentResponses    []AgentResponse `json:"agent_responses,omitempty"`
}

// SessionContext carries the facts extracted in earlier turns. The caller
// owns it; the orchestrator works on a copy and returns the fields to
// persist back.
type SessionContext struct {
	ConversationHistory []TurnRecord     `json:"conversation_history"`
	SymptomAnalysis     *SymptomAnalysis `json:"symptom_analysis,omitempty"`
	ComorbidityRisk     *ComorbidityRisk `json:"comorbidity_risk,omitempty"`
	AvailableSlots      []Slot           `json:"available_slots,omitempty"`
	ConversationStage   string           `json:"conversation_stage"`
	IsMedical           bool             `json:"is_medical"`
	MedicalHistory      []string         `json:"medical_history,omitempty"`
	UrgencyIndicators   []string         `json:"urgency_indicators,omitempty"`
	CrisisType          []string         `json:"crisis_type,omitempty"`
	BookingIntent       bool             `json:"booking_intent,omitempty"`
}

// NewSessionContext returns an empty context at the initial stage.
func NewSessionContext() *SessionContext {
	return &SessionContext{
		ConversationStage: "initial",
		IsMedical:         true,
	}
}

// AppendTurn records one exchange and evicts the oldest entries past the cap.
func (c *SessionContext) AppendTurn(rec TurnRecord) {
	c.ConversationHistory = append(c.ConversationHistory, rec)
	if n := len(c.ConversationHistory); n > MaxHistoryTurns {
		c.ConversationHistory = c.ConversationHistory[n-MaxHistoryTurns:]
	}
}

// Clone returns a deep enough copy for a turn to mutate without touching the
// caller's stored context.
func (c *SessionContext) Clone() *SessionContext {
	if c == nil {
		return NewSessionContext()
	}
	out := *c
	out.ConversationHistory = append([]TurnRecord(nil), c.ConversationHistory...)
	out.AvailableSlots = append([]Slot(nil), c.AvailableSlots...)
	out.MedicalHistory = append([]string(nil), c.MedicalHistory...)
	out.UrgencyIndicators = append([]string(nil), c.UrgencyIndicators...)
	out.CrisisType = append([]string(nil), c.CrisisType...)
	if c.SymptomAnalysis != nil {
		sa := *c.SymptomAnalysis
		sa.Symptoms = append([]string(nil), c.SymptomAnalysis.Symptoms...)
		out.SymptomAnalysis = &sa
	}
	if c.ComorbidityRisk != nil {
		cr := *c.ComorbidityRisk
		cr.RiskFactors = append([]string(nil), c.ComorbidityRisk.RiskFactors...)
		cr.Recommendations = append([]string(nil), c.ComorbidityRisk.Recommendations...)
		out.ComorbidityRisk = &cr
	}
	return &out
}
