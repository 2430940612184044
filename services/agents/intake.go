package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/services/llm"
	"github.com/vinodyk/patient-appointments/services/rules"
)

// Conversation stages derived from the completeness of the intake facts.
const (
	StageInitialContact      = "initial_contact"
	StageGatheringDetails    = "gathering_details"
	StageInformationComplete = "information_complete"
	StageCrisisSupport       = "crisis_support"
	StageRedirect            = "redirect_to_medical"
)

var medicalKeywords = []string{
	// Symptoms
	"pain", "ache", "hurt", "hurts", "fever", "sick", "ill", "symptom", "feel", "headache",
	"nausea", "dizzy", "tired", "fatigue", "cough", "cold", "flu", "infection",
	"bleeding", "swelling", "rash", "itch", "sore", "tender", "numb", "weak",

	// Injuries and conditions
	"broken", "broke", "injured", "injury", "sprained", "twisted", "fractured",
	"cut", "burn", "bruised", "swollen", "dislocated", "torn", "pulled",

	// Medical appointments
	"doctor", "appointment", "checkup", "consultation", "medical", "health",
	"physician", "specialist", "clinic", "hospital", "medicine", "medication",
	"prescription", "treatment", "therapy", "surgery", "procedure", "urgent care",

	// Body parts (when context suggests a medical issue)
	"head", "chest", "stomach", "back", "neck", "arm", "leg", "knee", "ankle",
	"shoulder", "wrist", "finger", "toe", "eye", "ear", "throat", "heart",
	"lung", "kidney", "liver", "brain", "bone", "muscle", "joint",

	// Medical conditions
	"diabetes", "hypertension", "asthma", "allergy", "depression", "anxiety",
	"cancer", "arthritis", "migraine", "chronic", "acute", "emergency",
}

var injuryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`my .* (hurts|is broken|is injured|broke|hurt)`),
	regexp.MustCompile(`(broke|hurt|injured|sprained|twisted) my`),
	regexp.MustCompile(`pain in (my )?`),
	regexp.MustCompile(`can't (move|feel|use) my`),
	regexp.MustCompile(`something wrong with my`),
	regexp.MustCompile(`problem with my`),
}

var appointmentPhrases = []string{
	"book appointment", "schedule appointment", "see a doctor", "medical help",
	"health issue", "not feeling well", "need to see", "medical concern",
	"need medical attention", "visit doctor", "consult doctor",
}

// Non-medical topic buckets, checked in order; the first bucket whose
// keywords fire wins.
var nonMedicalBuckets = []struct {
	name     string
	keywords []string
}{
	{"entertainment", []string{"movie", "ticket", "cinema", "theater", "film"}},
	{"dining", []string{"restaurant", "food", "dinner", "lunch", "table"}},
	{"travel", []string{"travel", "flight", "hotel", "vacation", "trip"}},
	{"shopping", []string{"shopping", "buy", "purchase", "store"}},
	{"weather", []string{"weather", "temperature", "forecast"}},
	{"general_info", []string{"time", "date", "calendar", "schedule"}},
}

// Crisis keyword sets, checked in priority order.
var suicideKeywords = []string{
	"kill myself", "end my life", "want to die", "suicide", "suicidal",
	"don't want to live", "life isn't worth", "better off dead",
	"thinking of ending", "hurt myself", "harm myself",
}

var selfHarmKeywords = []string{
	"cut myself", "hurt myself", "self harm", "self-harm", "cutting",
	"burning myself", "hitting myself",
}

var severeDepressionKeywords = []string{
	"can't go on", "hopeless", "worthless", "no point", "give up",
	"can't take it", "everything is dark", "no way out",
}

var symptomKeywords = []string{
	"pain", "ache", "fever", "headache", "nausea", "vomiting", "diarrhea",
	"constipation", "cough", "shortness of breath", "chest pain", "dizziness",
	"fatigue", "weakness", "rash", "swelling", "bleeding", "infection",
}

var durationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*(days?|weeks?|months?)`),
	regexp.MustCompile(`since\s+(\w+)`),
	regexp.MustCompile(`for\s+(\d+)\s*(hours?|days?)`),
}

var severityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)/10`),
	regexp.MustCompile(`(\d+)\s+out\s+of\s+10`),
	regexp.MustCompile(`(severe|mild|moderate|extreme|unbearable)`),
}

var urgencyKeywords = []string{
	"emergency", "urgent", "severe", "can't breathe", "chest pain",
	"unconscious", "bleeding heavily", "suicide", "overdose",
	"heart attack", "stroke", "allergic reaction",
}

var bookingVerbs = []string{"book", "schedule", "confirm", "reserve", "choose", "select", "pick"}

const intakeSystemPrompt = `You are a helpful medical assistant for a patient appointment booking system.
Greet patients warmly, gather initial information about their symptoms or
concerns, and determine whether they need emergency care, a specialist
consultation, or a general appointment. Be empathetic, ask one question at a
time, and never provide medical diagnoses. Collect: chief complaint, symptom
duration, severity (1-10), relevant medical history.`

// IntakeAgent is the first analysis stage: it decides medical vs.
// non-medical, detects crisis language, and extracts chief-complaint facts.
type IntakeAgent struct {
	llm llm.CompletionClient
}

func NewIntakeAgent(client llm.CompletionClient) *IntakeAgent {
	return &IntakeAgent{llm: client}
}

func (a *IntakeAgent) Name() string { return "Intake Agent" }

func (a *IntakeAgent) Invoke(ctx context.Context, message string, sess *models.SessionContext) (models.AgentResponse, error) {
	completion, err := complete(ctx, a.llm, a.Name(), intakeSystemPrompt, message, sess)
	if err != nil {
		return models.AgentResponse{}, err
	}

	if !IsMedicalRequest(message) {
		bucket := classifyNonMedical(message)
		return models.AgentResponse{
			AgentName:   a.Name(),
			Message:     politeRedirect(bucket),
			Confidence:  0.9,
			ActionTaken: "non_medical_redirect",
			Data: models.IntakeData{
				IsMedical:         false,
				RequestType:       bucket,
				ConversationStage: StageRedirect,
			},
		}, nil
	}

	// Crisis detection takes precedence over normal extraction.
	if crisis := detectCrisisIndicators(message); len(crisis) > 0 {
		return models.AgentResponse{
			AgentName:   a.Name(),
			Message:     crisisResponse(crisis),
			Confidence:  1.0,
			ActionTaken: "crisis_intervention",
			Data: models.IntakeData{
				IsMedical:         true,
				CrisisType:        crisis,
				ConversationStage: StageCrisisSupport,
			},
		}, nil
	}

	info := extractPatientInfo(message)
	urgency := detectUrgencyIndicators(message)
	bookingIntent := detectBookingIntent(message)

	msg := completion
	if msg == "" {
		msg = "Thank you for sharing. Let me assess your symptoms and find the right care for you."
	}

	return models.AgentResponse{
		AgentName:   a.Name(),
		Message:     msg,
		Confidence:  intakeConfidence(info),
		ActionTaken: intakeAction(info, urgency, bookingIntent),
		Data: models.IntakeData{
			IsMedical:         true,
			ExtractedInfo:     info,
			ConversationStage: conversationStage(info),
			UrgencyIndicators: urgency,
			BookingIntent:     bookingIntent,
		},
	}, nil
}

// IsMedicalRequest reports whether the message is about health care. It is
// exported because the slot engine re-validates booking requests with it.
func IsMedicalRequest(message string) bool {
	if rules.ContainsAny(message, medicalKeywords...) {
		return true
	}
	lower := strings.ToLower(message)
	for _, p := range injuryPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	for _, phrase := range appointmentPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func classifyNonMedical(message string) string {
	for _, bucket := range nonMedicalBuckets {
		if rules.ContainsAny(message, bucket.keywords...) {
			return bucket.name
		}
	}
	return "other"
}

var redirectIntros = map[string]string{
	"entertainment": "I understand you're looking to book movie tickets, but I'm specifically designed to help with medical appointments and healthcare needs.",
	"dining":        "I see you're interested in restaurant reservations, but I specialize in medical appointment booking and healthcare assistance.",
	"travel":        "I notice you're asking about travel arrangements, but my expertise is in medical appointments and healthcare services.",
	"shopping":      "I understand you're looking to make a purchase, but I'm designed specifically for medical appointment booking.",
	"weather":       "I see you're asking about weather, but I focus on medical appointments and healthcare needs.",
	"general_info":  "I understand you're looking for general information, but I specialize in medical appointments and healthcare.",
	"other":         "I appreciate your question, but I'm specifically designed to help with medical appointments and healthcare needs.",
}

func politeRedirect(bucket string) string {
	intro, ok := redirectIntros[bucket]
	if !ok {
		intro = redirectIntros["other"]
	}
	return fmt.Sprintf(`%s

I'm here to help you with:
- Scheduling medical appointments
- Discussing health symptoms and concerns
- Finding appropriate medical specialists
- Providing guidance on medical urgency
- Booking consultations with doctors

If you have any health concerns or need to see a healthcare provider, I'd be happy to assist you! Please let me know about any symptoms you're experiencing or what type of medical appointment you need.`, intro)
}

func detectCrisisIndicators(message string) []string {
	var out []string
	if rules.ContainsAny(message, suicideKeywords...) {
		out = append(out, "suicidal_ideation")
	}
	if rules.ContainsAny(message, selfHarmKeywords...) {
		out = append(out, "self_harm")
	}
	if rules.ContainsAny(message, severeDepressionKeywords...) {
		out = append(out, "severe_depression")
	}
	return out
}

func crisisResponse(indicators []string) string {
	for _, ind := range indicators {
		switch ind {
		case "suicidal_ideation":
			return `I'm really concerned about you and want you to know that you're not alone. Your life has value, and there are people who want to help.

**Immediate Support:**
- **Crisis Text Line**: Text HOME to 741741
- **National Suicide Prevention Lifeline**: 988 or 1-800-273-8255
- **Emergency Services**: Call 911 if you're in immediate danger

**Please consider:**
- Reaching out to a trusted friend, family member, or counselor
- Going to your nearest emergency room
- Calling a crisis helpline to talk with someone right now

I can also help you find mental health professionals in your area who specialize in crisis intervention and ongoing support. Would you like me to help you schedule an urgent appointment with a mental health provider?

You matter, and there is help available. Please don't hesitate to reach out for immediate support.`
		case "self_harm":
			return `I'm concerned about what you're going through. Self-harm can be a way of coping with difficult emotions, but there are healthier alternatives and people who can help.

**Immediate Resources:**
- **Crisis Text Line**: Text HOME to 741741
- **Self-Injury Outreach & Support**: sioutreach.org
- **National Suicide Prevention Lifeline**: 988

I can help you find a mental health professional who specializes in self-harm and can provide proper support. Would you like me to schedule an urgent appointment with a counselor or therapist?

Your feelings are valid, and you deserve support and care.`
		}
	}
	return `I hear that you're going through a really difficult time, and I want you to know that what you're feeling is valid. Depression can make everything seem overwhelming, but you don't have to face this alone.

**Support Resources:**
- **National Suicide Prevention Lifeline**: 988
- **Crisis Text Line**: Text HOME to 741741
- **NAMI HelpLine**: 1-800-950-6264

I can help you schedule an appointment with a mental health professional, such as a psychiatrist or therapist, who can provide proper assessment and treatment for depression. Would you like me to help you find mental health services in your area?

Taking the step to reach out shows incredible strength. Please consider speaking with a professional who can provide the support you deserve.`
}

func extractPatientInfo(message string) models.ExtractedInfo {
	lower := strings.ToLower(message)
	info := models.ExtractedInfo{}

	for _, symptom := range symptomKeywords {
		if strings.Contains(lower, symptom) {
			info.Symptoms = append(info.Symptoms, symptom)
		}
	}
	info.Symptoms = dedupeSorted(info.Symptoms)

	for _, p := range durationPatterns {
		if m := p.FindString(lower); m != "" {
			info.Duration = m
			break
		}
	}
	for _, p := range severityPatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			info.Severity = m[1]
			break
		}
	}
	return info
}

func intakeConfidence(info models.ExtractedInfo) float64 {
	score := 0.5
	if len(info.Symptoms) > 0 {
		score += 0.2
	}
	if info.Duration != "" {
		score += 0.15
	}
	if info.Severity != "" {
		score += 0.15
	}
	return capConfidence(score)
}

func intakeAction(info models.ExtractedInfo, urgency []string, bookingIntent bool) string {
	switch {
	case len(urgency) > 0:
		return "escalate_to_emergency"
	case len(info.Symptoms) > 0:
		return "forward_to_triage"
	case bookingIntent:
		return "initiate_booking"
	default:
		return "continue_conversation"
	}
}

func conversationStage(info models.ExtractedInfo) string {
	switch {
	case len(info.Symptoms) == 0:
		return StageInitialContact
	case info.Duration == "" && info.Severity == "":
		return StageGatheringDetails
	default:
		return StageInformationComplete
	}
}

func detectUrgencyIndicators(message string) []string {
	var out []string
	lower := strings.ToLower(message)
	for _, kw := range urgencyKeywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// detectBookingIntent fires on an explicit booking verb together with an
// appointment-ish noun, so casual mentions of "pick" or "select" alone do
// not start a booking flow.
func detectBookingIntent(message string) bool {
	if !rules.ContainsAny(message, bookingVerbs...) {
		return false
	}
	return rules.ContainsAny(message, "appointment", "slot", "doctor", "visit", "checkup", "consultation")
}
