// Package workflow wires the analysis stages into the single-pass
// state machine that handles one patient turn.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/services/agents"
	"github.com/vinodyk/patient-appointments/services/llm"
	"github.com/vinodyk/patient-appointments/services/scheduling"
	"github.com/vinodyk/patient-appointments/utils"
)

const emergencyProtocolMessage = `🚨 EMERGENCY PROTOCOL ACTIVATED 🚨

Based on your symptoms, you may require immediate medical attention.

IMMEDIATE ACTIONS:
• Call 911 if experiencing severe symptoms
• Go to the nearest Emergency Room
• Do not drive yourself - call an ambulance or have someone drive you
• Bring a list of current medications
• Have your insurance information ready

If this is not a life-threatening emergency, consider:
• Urgent Care Center for same-day treatment
• Telehealth consultation with a physician
• Contact your primary care provider's emergency line

Your safety is our top priority. When in doubt, seek immediate medical care.`

const blockedMessage = "Your request has been blocked for security reasons. Please contact support if you believe this is an error."

// turnState accumulates the outcome of one pass through the pipeline.
// It starts from a clone of the session context and is thrown away on
// error, so a failed turn never leaks partial updates.
type turnState struct {
	request           models.PatientRequest
	sess              *models.SessionContext
	agentResponses    []models.AgentResponse
	securityStatus    string
	symptomAnalysis   *models.SymptomAnalysis
	comorbidityRisk   *models.ComorbidityRisk
	bookingData       models.BookingData
	requiresEmergency bool
	nextSteps         []string
	finalMessage      string
}

// Orchestrator runs a patient message through security, intake, triage,
// comorbidity, and scheduling, in that order, short-circuiting where a
// stage's outcome decides the turn.
type Orchestrator struct {
	security    agents.Agent
	intake      agents.Agent
	triage      agents.Agent
	comorbidity agents.Agent
	booker      *scheduling.Booker
}

// New builds the full pipeline sharing one completion client. The client
// may be nil, in which case each stage runs on its deterministic rules
// alone.
func New(client llm.CompletionClient) *Orchestrator {
	return &Orchestrator{
		security:    agents.NewSecurityAgent(client),
		intake:      agents.NewIntakeAgent(client),
		triage:      agents.NewTriageAgent(client),
		comorbidity: agents.NewComorbidityAgent(client),
		booker:      scheduling.NewBooker(client),
	}
}

// NewWithBooker swaps in a preconstructed scheduling stage, used by tests
// that need a pinned clock.
func NewWithBooker(client llm.CompletionClient, booker *scheduling.Booker) *Orchestrator {
	o := New(client)
	o.booker = booker
	return o
}

// ProcessTurn handles one patient message. The passed session context is
// not mutated; the returned context holds the state to persist for the
// next turn.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req models.PatientRequest, sess *models.SessionContext) (*models.AppointmentResponse, *models.SessionContext, error) {
	logger := utils.GetLogger().With(
		zap.String("session_id", req.SessionID),
	)

	st := &turnState{
		request: req,
		sess:    sess.Clone(),
	}
	st.symptomAnalysis = st.sess.SymptomAnalysis
	st.comorbidityRisk = st.sess.ComorbidityRisk

	// Follow-up turns selecting a previously offered slot bypass the
	// analysis pipeline entirely.
	if scheduling.ReferencesPreviousSlots(req.Message, st.sess.AvailableSlots) {
		logger.Info("resolving slot selection from previous turn",
			zap.Int("offered_slots", len(st.sess.AvailableSlots)))
		return o.handleSlotSelection(st)
	}

	if err := o.runSecurity(ctx, st); err != nil {
		logger.Error("security stage failed", zap.Error(err))
		return nil, nil, err
	}
	if st.securityStatus == agents.SafetyBlock {
		logger.Warn("request blocked by security screening")
		return o.blockedResponse(st)
	}

	if err := o.runIntake(ctx, st); err != nil {
		logger.Error("intake stage failed", zap.Error(err))
		return nil, nil, err
	}

	if !st.sess.IsMedical {
		o.finalize(st)
		return o.respond(st)
	}

	// A detected crisis ends the turn with the support message; no
	// triage or scheduling on top of it.
	if crisisDetected(st) {
		st.finalMessage = st.agentResponses[len(st.agentResponses)-1].Message
		st.nextSteps = []string{
			"Reach out to one of the crisis support lines above",
			"Consider an urgent appointment with a mental health professional",
		}
		return o.respond(st)
	}

	if o.isBookingWithContext(st) {
		if err := o.runBooking(ctx, st); err != nil {
			logger.Error("booking stage failed", zap.Error(err))
			return nil, nil, err
		}
		o.finalize(st)
		return o.respond(st)
	}

	if len(st.sess.UrgencyIndicators) > 0 || len(st.sess.CrisisType) > 0 {
		o.routeToEmergency(st)
		return o.respond(st)
	}

	if o.hasSymptoms(st) || st.symptomAnalysis == nil {
		if err := o.runTriage(ctx, st); err != nil {
			logger.Error("triage stage failed", zap.Error(err))
			return nil, nil, err
		}
		if st.requiresEmergency {
			o.routeToEmergency(st)
			return o.respond(st)
		}
		if o.needsComorbidityAnalysis(st) {
			if err := o.runComorbidity(ctx, st); err != nil {
				logger.Error("comorbidity stage failed", zap.Error(err))
				return nil, nil, err
			}
		}
	}

	if err := o.runBooking(ctx, st); err != nil {
		logger.Error("booking stage failed", zap.Error(err))
		return nil, nil, err
	}

	o.finalize(st)
	return o.respond(st)
}

func (o *Orchestrator) runSecurity(ctx context.Context, st *turnState) error {
	resp, err := o.security.Invoke(ctx, st.request.Message, st.sess)
	if err != nil {
		return err
	}
	st.agentResponses = append(st.agentResponses, resp)
	st.securityStatus = agents.SafetySafe
	if data, ok := resp.Data.(models.SecurityData); ok {
		st.securityStatus = data.SafetyLevel
	}
	return nil
}

func (o *Orchestrator) runIntake(ctx context.Context, st *turnState) error {
	resp, err := o.intake.Invoke(ctx, st.request.Message, st.sess)
	if err != nil {
		return err
	}
	st.agentResponses = append(st.agentResponses, resp)

	if data, ok := resp.Data.(models.IntakeData); ok {
		st.sess.IsMedical = data.IsMedical
		st.sess.ConversationStage = data.ConversationStage
		st.sess.UrgencyIndicators = data.UrgencyIndicators
		// Crisis markers are sticky: once a session has shown crisis
		// language, later turns keep routing toward urgent care.
		if len(data.CrisisType) > 0 {
			st.sess.CrisisType = data.CrisisType
		}
		st.sess.BookingIntent = data.BookingIntent
		if len(data.ExtractedInfo.MedicalHistory) > 0 {
			st.sess.MedicalHistory = append(st.sess.MedicalHistory, data.ExtractedInfo.MedicalHistory...)
		}
	}
	return nil
}

func (o *Orchestrator) runTriage(ctx context.Context, st *turnState) error {
	resp, err := o.triage.Invoke(ctx, st.request.Message, st.sess)
	if err != nil {
		return err
	}
	st.agentResponses = append(st.agentResponses, resp)

	if data, ok := resp.Data.(models.TriageData); ok {
		sa := data.SymptomAnalysis
		st.symptomAnalysis = &sa
		st.sess.SymptomAnalysis = &sa
		st.requiresEmergency = data.EmergencyIndicators
	}
	return nil
}

func (o *Orchestrator) runComorbidity(ctx context.Context, st *turnState) error {
	resp, err := o.comorbidity.Invoke(ctx, st.request.Message, st.sess)
	if err != nil {
		return err
	}
	st.agentResponses = append(st.agentResponses, resp)

	if data, ok := resp.Data.(models.ComorbidityData); ok {
		cr := data.ComorbidityRisk
		st.comorbidityRisk = &cr
		st.sess.ComorbidityRisk = &cr
	}
	return nil
}

func (o *Orchestrator) runBooking(ctx context.Context, st *turnState) error {
	resp, err := o.booker.Invoke(ctx, st.request.Message, st.sess)
	if err != nil {
		return err
	}
	st.agentResponses = append(st.agentResponses, resp)

	if data, ok := resp.Data.(models.BookingData); ok {
		st.bookingData = data
		st.sess.AvailableSlots = data.AvailableSlots
	}
	return nil
}

// handleSlotSelection books the slot the follow-up message refers to, or
// asks for clarification listing the offered slots again.
func (o *Orchestrator) handleSlotSelection(st *turnState) (*models.AppointmentResponse, *models.SessionContext, error) {
	slots := st.sess.AvailableSlots
	selected, wantsFirst := scheduling.ResolveSlot(st.request.Message, slots)
	if selected == nil && wantsFirst && len(slots) > 0 {
		selected = &slots[0]
	}

	if selected == nil {
		var b strings.Builder
		b.WriteString("🤔 I'd like to help you book an appointment, but I need clarification on which slot you'd prefer.\n\n**Available options:**\n")
		for i, s := range slots {
			fmt.Fprintf(&b, "%d. %s at %s with %s\n", i+1, s.Date, s.Time, s.Doctor)
		}
		b.WriteString("\nPlease specify which option you'd like (e.g., 'Book option 1' or 'Schedule with Dr. Chen').")

		st.agentResponses = append(st.agentResponses, models.AgentResponse{
			AgentName:   "Appointment Booker",
			Message:     "Requesting clarification for slot selection",
			Confidence:  0.8,
			ActionTaken: "clarification_requested",
		})
		st.finalMessage = b.String()
		st.nextSteps = []string{"Specify which appointment slot you prefer"}
		// The offered list stays in the session so the next reply can
		// still resolve against it.
		st.bookingData.AvailableSlots = slots
		return o.respond(st)
	}

	booking := scheduling.NewBooking(*selected, st.request.PatientID, models.AppointmentGeneral)

	st.agentResponses = append(st.agentResponses, models.AgentResponse{
		AgentName:   "Appointment Booker",
		Message:     fmt.Sprintf("Successfully booked appointment with %s", booking.Doctor),
		Confidence:  1.0,
		ActionTaken: "slot_booking_confirmed",
	})
	st.finalMessage = confirmationMessage(booking)
	st.nextSteps = []string{
		"Arrive 15 minutes early",
		"Bring insurance card and ID",
		"Prepare questions for your doctor",
	}
	st.bookingData = models.BookingData{Booking: booking}
	st.sess.AvailableSlots = nil
	st.sess.BookingIntent = false
	return o.respond(st)
}

func confirmationMessage(b *models.AppointmentBooking) string {
	return fmt.Sprintf(`✅ **APPOINTMENT CONFIRMED**

🎯 **Appointment Details:**
• **ID**: %s
• **Date**: %s
• **Time**: %s
• **Doctor**: %s
• **Specialty**: %s

📋 **Next Steps:**
• You'll receive a confirmation email shortly
• Please arrive 15 minutes early for check-in
• Bring your insurance card and ID
• Prepare any questions you'd like to discuss

Thank you for choosing our medical services! If you need to reschedule, please call us at least 24 hours in advance.`,
		b.AppointmentID, b.Date, b.Time, b.Doctor, b.Specialty)
}

func (o *Orchestrator) routeToEmergency(st *turnState) {
	st.agentResponses = append(st.agentResponses, models.AgentResponse{
		AgentName:   "Emergency Protocol",
		Message:     emergencyProtocolMessage,
		Confidence:  1.0,
		ActionTaken: "emergency_routing",
	})
	st.requiresEmergency = true
	st.nextSteps = []string{
		"Call 911 if experiencing severe symptoms",
		"Go to nearest Emergency Room",
		"Contact emergency services",
		"Do not delay seeking immediate care",
	}
	st.finalMessage = "Emergency care recommended. Please seek immediate medical attention."
}

// crisisDetected reports whether this turn's intake stage flagged crisis
// language, as opposed to markers carried from earlier turns.
func crisisDetected(st *turnState) bool {
	for _, resp := range st.agentResponses {
		if resp.ActionTaken == "crisis_intervention" {
			return true
		}
	}
	return false
}

func (o *Orchestrator) hasSymptoms(st *turnState) bool {
	if !st.sess.IsMedical {
		return false
	}
	for _, resp := range st.agentResponses {
		if data, ok := resp.Data.(models.IntakeData); ok {
			return len(data.ExtractedInfo.Symptoms) > 0
		}
	}
	return false
}

func (o *Orchestrator) isBookingWithContext(st *turnState) bool {
	for _, resp := range st.agentResponses {
		if resp.ActionTaken == "initiate_booking" {
			return true
		}
	}
	return len(st.sess.AvailableSlots) > 0 && st.sess.BookingIntent
}

func (o *Orchestrator) needsComorbidityAnalysis(st *turnState) bool {
	if st.symptomAnalysis == nil {
		return false
	}
	sev := st.symptomAnalysis.Severity
	return sev == models.PriorityHigh || sev == models.PriorityMedium ||
		len(st.symptomAnalysis.Symptoms) >= 2
}

func (o *Orchestrator) finalize(st *turnState) {
	if !st.requiresEmergency {
		st.nextSteps = o.nextSteps(st)
	}
	st.finalMessage = o.finalMessage(st)
}

func (o *Orchestrator) nextSteps(st *turnState) []string {
	var steps []string

	severity := models.PriorityLow
	if st.symptomAnalysis != nil {
		severity = st.symptomAnalysis.Severity
	}
	switch severity {
	case models.PriorityHigh, models.PriorityEmergency:
		steps = append(steps, "Schedule appointment within 24-48 hours", "Monitor symptoms closely")
	case models.PriorityMedium:
		steps = append(steps, "Schedule appointment within 1 week", "Track symptom progression")
	default:
		steps = append(steps, "Schedule routine appointment", "Continue monitoring symptoms")
	}

	if len(st.bookingData.AvailableSlots) > 0 {
		steps = append(steps, "Choose preferred appointment slot", "Confirm appointment booking")
	}
	if st.comorbidityRisk != nil {
		recs := st.comorbidityRisk.Recommendations
		if len(recs) > 2 {
			recs = recs[:2]
		}
		steps = append(steps, recs...)
	}
	return steps
}

func (o *Orchestrator) finalMessage(st *turnState) string {
	if st.requiresEmergency {
		return "Emergency care recommended. Please seek immediate medical attention."
	}
	for _, resp := range st.agentResponses {
		if resp.AgentName == "Appointment Booker" {
			return resp.Message
		}
	}
	// Non-medical redirects end the pipeline at intake; surface that
	// stage's message directly.
	if len(st.agentResponses) > 0 {
		last := st.agentResponses[len(st.agentResponses)-1]
		if last.ActionTaken == "non_medical_redirect" || last.ActionTaken == "crisis_intervention" {
			return last.Message
		}
	}
	return "Thank you for using our appointment booking system. Our agents have assessed your request and provided recommendations above."
}

func (o *Orchestrator) respond(st *turnState) (*models.AppointmentResponse, *models.SessionContext, error) {
	resp := &models.AppointmentResponse{
		Message:           st.finalMessage,
		AgentResponses:    st.agentResponses,
		SymptomAnalysis:   st.symptomAnalysis,
		ComorbidityRisk:   st.comorbidityRisk,
		AvailableSlots:    st.bookingData.AvailableSlots,
		Booking:           st.bookingData.Booking,
		NextSteps:         st.nextSteps,
		RequiresEmergency: st.requiresEmergency,
		SessionID:         st.request.SessionID,
	}
	if resp.AvailableSlots == nil {
		resp.AvailableSlots = []models.Slot{}
	}
	if resp.NextSteps == nil {
		resp.NextSteps = []string{}
	}
	return resp, st.sess, nil
}

func (o *Orchestrator) blockedResponse(st *turnState) (*models.AppointmentResponse, *models.SessionContext, error) {
	st.finalMessage = blockedMessage
	st.nextSteps = []string{"Contact support for assistance"}
	st.bookingData = models.BookingData{}
	return o.respond(st)
}
