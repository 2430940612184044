package scheduling

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/services/agents"
	"github.com/vinodyk/patient-appointments/services/llm"
	"github.com/vinodyk/patient-appointments/services/rules"
)

const bookerSystemPrompt = `You are an appointment booking specialist AI assistant.
Your role is to:
1. Find available appointment slots based on patient needs
2. Match appointments with appropriate specialists
3. Consider urgency and priority levels
4. Provide appointment confirmation and details
5. Offer alternative slots if preferred times unavailable

Booking Priorities:
- Emergency: Immediate or same-day slots
- High: Within 24-48 hours
- Medium: Within 1 week
- Low: Within 2-4 weeks

Consider patient preferences, insurance coverage, and medical urgency when scheduling.`

// Slot generation windows per priority, in days from today.
const (
	emergencyWindowDays = 2
	highWindowDays      = 3
	mediumWindowDays    = 7
	lowWindowDays       = 14
	maxSlotsReturned    = 10
)

var emergencySlotTimes = []string{
	"8:00 AM", "8:30 AM", "9:00 AM", "9:30 AM", "10:00 AM",
	"10:30 AM", "11:00 AM", "11:30 AM", "2:00 PM", "2:30 PM",
}

var regularSlotTimes = []string{
	"9:00 AM", "10:00 AM", "11:00 AM", "1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM",
}

var dateKeywords = []string{
	"today", "tomorrow", "this week", "next week",
	"monday", "tuesday", "wednesday", "thursday", "friday",
}

var timeKeywords = []string{
	"morning", "afternoon", "evening", "9am", "10am", "11am",
	"1pm", "2pm", "3pm", "4pm", "5pm",
}

// Requirements captures what the slot search needs to know about the
// patient's situation, assembled from the message and the session.
type Requirements struct {
	Specialty       string
	Priority        models.Priority
	PreferredDate   string
	PreferredTime   string
	AppointmentType models.AppointmentType
	PatientID       string
}

// Booker is the scheduling stage: it searches the roster for open slots
// and books one when the patient asks for it. Now is injectable so tests
// can pin the calendar.
type Booker struct {
	llm llm.CompletionClient
	now func() time.Time
}

func NewBooker(client llm.CompletionClient) *Booker {
	return &Booker{llm: client, now: time.Now}
}

// NewBookerAt builds a Booker with a fixed clock.
func NewBookerAt(client llm.CompletionClient, now func() time.Time) *Booker {
	return &Booker{llm: client, now: now}
}

func (b *Booker) Name() string { return "Appointment Booker" }

func (b *Booker) Invoke(ctx context.Context, message string, sess *models.SessionContext) (models.AgentResponse, error) {
	var completion string
	if b.llm != nil {
		var err error
		completion, err = b.llm.Complete(ctx, bookerSystemPrompt, message, summarizeForBooker(sess))
		if err != nil {
			return models.AgentResponse{}, fmt.Errorf("%s completion failed: %w", b.Name(), err)
		}
	}

	if !b.isValidMedicalRequest(message, sess) {
		return models.AgentResponse{
			AgentName:   b.Name(),
			Message:     "I can only help with medical appointments. Please specify your health concerns or the type of medical specialist you need to see.",
			Confidence:  0.9,
			ActionTaken: "invalid_medical_request",
			Data:        models.BookingData{},
		}, nil
	}

	req := b.ExtractRequirements(message, sess)
	slots := b.FindAvailableSlots(req)
	booking := b.bookIfRequested(message, slots, req)

	return models.AgentResponse{
		AgentName:   b.Name(),
		Message:     bookingMessage(slots, booking, completion),
		Confidence:  bookingConfidence(slots, req),
		ActionTaken: bookingAction(booking, slots),
		Data: models.BookingData{
			AvailableSlots: slots,
			Booking:        booking,
			NextAvailable:  b.nextAvailable(req),
		},
	}, nil
}

// isValidMedicalRequest rejects slot searches for requests the pipeline
// already knows are non-medical, and otherwise requires medical vocabulary
// in the message itself.
func (b *Booker) isValidMedicalRequest(message string, sess *models.SessionContext) bool {
	if sess != nil {
		if !sess.IsMedical {
			return false
		}
		if sess.SymptomAnalysis != nil && len(sess.SymptomAnalysis.Symptoms) > 0 {
			return true
		}
	}

	nonMedical := rules.ContainsAny(message,
		"movie", "ticket", "cinema", "theater", "film", "restaurant", "food", "dinner",
		"travel", "flight", "hotel", "shopping", "weather", "entertainment", "concert",
		"show", "game", "sports", "vacation",
	)
	if nonMedical {
		return false
	}
	return agents.IsMedicalRequest(message)
}

// ExtractRequirements derives the slot search parameters from the message
// and the accumulated session state. Triage output, when present, decides
// specialty and priority; the message decides date and time preferences.
func (b *Booker) ExtractRequirements(message string, sess *models.SessionContext) Requirements {
	req := Requirements{
		Specialty:       "general_practice",
		Priority:        models.PriorityLow,
		AppointmentType: models.AppointmentGeneral,
		PatientID:       uuid.NewString()[:8],
	}

	if sess != nil && sess.SymptomAnalysis != nil {
		sa := sess.SymptomAnalysis
		if sa.SpecialtyRequired != "" {
			req.Specialty = sa.SpecialtyRequired
		}
		if sa.Severity != "" {
			req.Priority = sa.Severity
		}
		if sa.Urgency {
			req.AppointmentType = models.AppointmentEmergency
			req.Priority = models.PriorityEmergency
		}
	}

	lower := strings.ToLower(message)
	for _, kw := range dateKeywords {
		if strings.Contains(lower, kw) {
			req.PreferredDate = kw
			break
		}
	}
	for _, kw := range timeKeywords {
		if strings.Contains(lower, kw) {
			req.PreferredTime = kw
			break
		}
	}

	switch {
	case rules.ContainsAny(message, "emergency", "urgent", "asap"):
		req.AppointmentType = models.AppointmentEmergency
		req.Priority = models.PriorityEmergency
	case rules.ContainsAny(message, "followup", "follow up", "check up"):
		req.AppointmentType = models.AppointmentFollowup
	case rules.ContainsAny(message, "specialist", "referral"):
		req.AppointmentType = models.AppointmentSpecialist
	}
	return req
}

// FindAvailableSlots generates candidate slots for the priority's search
// window, applies the patient's preferences, and returns at most ten slots
// in chronological order.
func (b *Booker) FindAvailableSlots(req Requirements) []models.Slot {
	doctors := DoctorsFor(req.Specialty)
	base := b.now()
	var slots []models.Slot

	switch req.Priority {
	case models.PriorityEmergency:
		for i := 0; i < emergencyWindowDays; i++ {
			date := base.AddDate(0, 0, i)
			for _, doc := range doctors {
				if doc.Availability == AroundTheClock || i == 0 {
					slots = append(slots, slotsForDay(date, doc, req.Specialty, true)...)
				}
			}
		}
	case models.PriorityHigh:
		for i := 0; i < highWindowDays; i++ {
			date := base.AddDate(0, 0, i)
			for _, doc := range doctors {
				slots = append(slots, slotsForDay(date, doc, req.Specialty, false)...)
			}
		}
	case models.PriorityMedium:
		for i := 0; i < mediumWindowDays; i++ {
			date := base.AddDate(0, 0, i)
			if !isWeekday(date) {
				continue
			}
			for _, doc := range doctors {
				slots = append(slots, slotsForDay(date, doc, req.Specialty, false)...)
			}
		}
	default:
		for i := 0; i < lowWindowDays; i++ {
			date := base.AddDate(0, 0, i)
			if !isWeekday(date) {
				continue
			}
			for _, doc := range doctors {
				slots = append(slots, slotsForDay(date, doc, req.Specialty, false)...)
			}
		}
	}

	if req.PreferredDate != "" {
		slots = filterByDate(slots, req.PreferredDate, base)
	}
	if req.PreferredTime != "" {
		slots = filterByTime(slots, req.PreferredTime)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return timeToMinutes(slots[i].Time) < timeToMinutes(slots[j].Time)
	})

	if len(slots) > maxSlotsReturned {
		slots = slots[:maxSlotsReturned]
	}
	return slots
}

func slotsForDay(date time.Time, doc Doctor, specialty string, emergency bool) []models.Slot {
	times := regularSlotTimes
	if emergency {
		times = emergencySlotTimes
	}
	slots := make([]models.Slot, 0, len(times))
	for _, t := range times {
		slots = append(slots, models.Slot{
			Date:      date.Format("2006-01-02"),
			Time:      t,
			Doctor:    doc.Name,
			Specialty: titleSpecialty(specialty),
			Available: true,
		})
	}
	return slots
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func filterByDate(slots []models.Slot, preference string, base time.Time) []models.Slot {
	switch preference {
	case "today":
		return keepSlots(slots, func(s models.Slot) bool {
			return s.Date == base.Format("2006-01-02")
		})
	case "tomorrow":
		tomorrow := base.AddDate(0, 0, 1).Format("2006-01-02")
		return keepSlots(slots, func(s models.Slot) bool { return s.Date == tomorrow })
	case "this week":
		weekEnd := base.AddDate(0, 0, 7).Format("2006-01-02")
		return keepSlots(slots, func(s models.Slot) bool { return s.Date <= weekEnd })
	}
	return slots
}

func filterByTime(slots []models.Slot, preference string) []models.Slot {
	switch preference {
	case "morning":
		return keepSlots(slots, func(s models.Slot) bool {
			return strings.Contains(s.Time, "AM")
		})
	case "afternoon":
		return keepSlots(slots, func(s models.Slot) bool {
			return strings.Contains(s.Time, "PM") && slotHour(s.Time) < 5
		})
	case "evening":
		return keepSlots(slots, func(s models.Slot) bool {
			return strings.Contains(s.Time, "PM") && slotHour(s.Time) >= 5
		})
	}
	return slots
}

func keepSlots(slots []models.Slot, keep func(models.Slot) bool) []models.Slot {
	out := slots[:0:0]
	for _, s := range slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func slotHour(t string) int {
	h, _ := strconv.Atoi(strings.SplitN(t, ":", 2)[0])
	return h
}

// timeToMinutes converts "1:00 PM" style times to minutes past midnight so
// sorting is chronological, not lexical.
func timeToMinutes(t string) int {
	parts := strings.Fields(t)
	if len(parts) != 2 {
		return 0
	}
	hm := strings.SplitN(parts[0], ":", 2)
	h, _ := strconv.Atoi(hm[0])
	m := 0
	if len(hm) == 2 {
		m, _ = strconv.Atoi(hm[1])
	}
	if parts[1] == "PM" && h != 12 {
		h += 12
	}
	if parts[1] == "AM" && h == 12 {
		h = 0
	}
	return h*60 + m
}

func (b *Booker) bookIfRequested(message string, slots []models.Slot, req Requirements) *models.AppointmentBooking {
	if len(slots) == 0 {
		return nil
	}
	if !rules.ContainsAny(message, "book", "schedule", "confirm", "reserve", "appointment") {
		return nil
	}
	return NewBooking(slots[0], req.PatientID, req.AppointmentType)
}

// NewBooking confirms a slot into a booking record.
func NewBooking(slot models.Slot, patientID string, apptType models.AppointmentType) *models.AppointmentBooking {
	if patientID == "" {
		patientID = uuid.NewString()[:8]
	}
	return &models.AppointmentBooking{
		AppointmentID:   "APT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
		PatientID:       patientID,
		Date:            slot.Date,
		Time:            slot.Time,
		Doctor:          slot.Doctor,
		Specialty:       slot.Specialty,
		AppointmentType: apptType,
		Confirmed:       true,
	}
}

func bookingConfidence(slots []models.Slot, req Requirements) float64 {
	score := 0.8
	if len(slots) >= 5 {
		score += 0.1
	}
	if req.Priority == models.PriorityEmergency {
		score += 0.1
	}
	if !HasSpecialty(req.Specialty) {
		score -= 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.5 {
		score = 0.5
	}
	return score
}

func bookingAction(booking *models.AppointmentBooking, slots []models.Slot) string {
	switch {
	case booking != nil:
		return "appointment_booked"
	case len(slots) > 0:
		return "slots_provided"
	default:
		return "no_slots_available"
	}
}

func (b *Booker) nextAvailable(req Requirements) string {
	slots := b.FindAvailableSlots(req)
	if len(slots) == 0 {
		return ""
	}
	s := slots[0]
	return fmt.Sprintf("%s at %s with %s", s.Date, s.Time, s.Doctor)
}

func bookingMessage(slots []models.Slot, booking *models.AppointmentBooking, completion string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 APPOINTMENT SCHEDULING\n\n%s\n\n", completion)

	switch {
	case booking != nil:
		sb.WriteString("✅ APPOINTMENT CONFIRMED\n")
		fmt.Fprintf(&sb, "Appointment ID: %s\n", booking.AppointmentID)
		fmt.Fprintf(&sb, "Date: %s\n", booking.Date)
		fmt.Fprintf(&sb, "Time: %s\n", booking.Time)
		fmt.Fprintf(&sb, "Doctor: %s\n", booking.Doctor)
		fmt.Fprintf(&sb, "Specialty: %s\n", booking.Specialty)
		fmt.Fprintf(&sb, "Type: %s\n\n", titleSpecialty(string(booking.AppointmentType)))
		sb.WriteString("Please arrive 15 minutes early for check-in.\n")
	case len(slots) > 0:
		fmt.Fprintf(&sb, "📋 AVAILABLE APPOINTMENTS (%d found):\n\n", len(slots))
		shown := slots
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for i, s := range shown {
			fmt.Fprintf(&sb, "%d. %s at %s\n", i+1, s.Date, s.Time)
			fmt.Fprintf(&sb, "   Doctor: %s\n", s.Doctor)
			fmt.Fprintf(&sb, "   Specialty: %s\n\n", s.Specialty)
		}
		if len(slots) > 5 {
			fmt.Fprintf(&sb, "...and %d more slots available.\n", len(slots)-5)
		}
		sb.WriteString("Please let me know which slot you'd prefer to book.\n")
	default:
		sb.WriteString("❌ No available appointments found for your requirements.\n")
		sb.WriteString("Please contact our office directly at (555) 123-4567 for assistance.\n")
	}
	return sb.String()
}

func titleSpecialty(s string) string {
	parts := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func summarizeForBooker(sess *models.SessionContext) string {
	if sess == nil {
		return ""
	}
	var parts []string
	if sess.SymptomAnalysis != nil {
		parts = append(parts, fmt.Sprintf("Priority: %s", sess.SymptomAnalysis.Severity))
		if sess.SymptomAnalysis.SpecialtyRequired != "" {
			parts = append(parts, fmt.Sprintf("Specialty: %s", sess.SymptomAnalysis.SpecialtyRequired))
		}
	}
	if sess.ConversationStage != "" {
		parts = append(parts, fmt.Sprintf("Stage: %s", sess.ConversationStage))
	}
	return strings.Join(parts, ". ")
}
