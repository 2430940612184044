package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/services/llm"
	"github.com/vinodyk/patient-appointments/services/rules"
)

const triageSystemPrompt = `You are a medical triage specialist AI assistant.
Your role is to assess patient symptoms and determine appropriate priority levels for medical care.

Priority Levels:
- EMERGENCY: Life-threatening conditions requiring immediate attention
- HIGH: Urgent conditions needing same-day care
- MEDIUM: Conditions requiring care within 1-3 days
- LOW: Routine conditions that can wait 1-2 weeks

Assessment Criteria:
1. Symptom severity and progression
2. Vital signs if mentioned
3. Duration of symptoms
4. Patient's age and risk factors
5. Associated symptoms

Provide triage assessment with reasoning, recommended urgency, and suggested medical specialty.`

var emergencySymptoms = []string{
	"chest pain", "difficulty breathing", "can't breathe", "heart attack",
	"stroke", "unconscious", "severe bleeding", "allergic reaction",
	"suicide", "overdose", "severe head injury",
}

var highPrioritySymptoms = []string{
	"severe pain", "high fever", "persistent vomiting", "severe headache",
	"vision loss", "difficulty swallowing", "severe dizziness",
}

var mediumPrioritySymptoms = []string{
	"moderate pain", "fever", "headache", "nausea", "diarrhea",
	"rash", "joint pain", "muscle ache",
}

var severityIndicators = []string{
	"severe", "extreme", "unbearable", "worst", "excruciating",
	"can't", "unable", "impossible",
}

// Keyword to specialty, first match wins in lexicon order.
var specialtyMapping = []struct {
	keyword   string
	specialty string
}{
	{"heart", "cardiology"},
	{"chest", "cardiology"},
	{"breathing", "pulmonology"},
	{"lung", "pulmonology"},
	{"skin", "dermatology"},
	{"rash", "dermatology"},
	{"bone", "orthopedics"},
	{"joint", "orthopedics"},
	{"headache", "neurology"},
	{"vision", "ophthalmology"},
	{"eye", "ophthalmology"},
	{"ear", "otolaryngology"},
	{"throat", "otolaryngology"},
}

var triageSymptomKeywords = []string{
	"pain", "ache", "fever", "headache", "nausea", "vomiting", "diarrhea",
	"constipation", "cough", "shortness of breath", "chest pain", "dizziness",
	"fatigue", "weakness", "rash", "swelling", "bleeding", "infection",
	"sore throat", "runny nose", "congestion", "chills", "sweating",
}

var emergencyIndicatorKeywords = []string{
	"emergency", "911", "ambulance", "life threatening",
	"can't breathe", "heart attack", "stroke", "unconscious",
	"severe bleeding", "overdose", "poisoning",
}

// TriageAgent assigns a care priority, the medical specialty the patient
// should see, and a recommended timeframe.
type TriageAgent struct {
	llm llm.CompletionClient
}

func NewTriageAgent(client llm.CompletionClient) *TriageAgent {
	return &TriageAgent{llm: client}
}

func (a *TriageAgent) Name() string { return "Triage Agent" }

func (a *TriageAgent) Invoke(ctx context.Context, message string, sess *models.SessionContext) (models.AgentResponse, error) {
	completion, err := complete(ctx, a.llm, a.Name(), triageSystemPrompt, message, sess)
	if err != nil {
		return models.AgentResponse{}, err
	}

	symptoms := extractTriageSymptoms(message, sess)
	priority := assessPriority(message)
	specialty := determineSpecialty(message, symptoms)
	emergency := checkEmergencyIndicators(message)

	analysis := models.SymptomAnalysis{
		Symptoms:          symptoms,
		Severity:          priority,
		Urgency:           emergency,
		SpecialtyRequired: specialty,
	}

	return models.AgentResponse{
		AgentName:   a.Name(),
		Message:     triageMessage(analysis, completion),
		Confidence:  triageConfidence(symptoms, priority),
		ActionTaken: triageAction(priority, emergency),
		Data: models.TriageData{
			SymptomAnalysis:      analysis,
			EmergencyIndicators:  emergency,
			RecommendedTimeframe: timeframeFor(priority),
			CareInstructions:     careInstructions(priority),
		},
	}, nil
}

func extractTriageSymptoms(message string, sess *models.SessionContext) []string {
	lower := strings.ToLower(message)
	var symptoms []string
	for _, symptom := range triageSymptomKeywords {
		if strings.Contains(lower, symptom) {
			symptoms = append(symptoms, symptom)
		}
	}
	if sess != nil && sess.SymptomAnalysis != nil {
		symptoms = append(symptoms, sess.SymptomAnalysis.Symptoms...)
	}
	return dedupeSorted(symptoms)
}

func assessPriority(message string) models.Priority {
	if rules.ContainsAny(message, emergencySymptoms...) {
		return models.PriorityEmergency
	}
	if rules.ContainsAny(message, highPrioritySymptoms...) {
		return models.PriorityHigh
	}
	if rules.ContainsAny(message, severityIndicators...) {
		return models.PriorityHigh
	}
	if rules.ContainsAny(message, mediumPrioritySymptoms...) {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

func determineSpecialty(message string, symptoms []string) string {
	lower := strings.ToLower(message)
	for _, m := range specialtyMapping {
		if strings.Contains(lower, m.keyword) {
			return m.specialty
		}
	}
	for _, s := range symptoms {
		switch s {
		case "chest pain", "heart", "cardiac":
			return "cardiology"
		case "breathing", "lung", "respiratory":
			return "pulmonology"
		case "headache", "neurological", "seizure":
			return "neurology"
		}
	}
	return "general_practice"
}

func checkEmergencyIndicators(message string) bool {
	lower := strings.ToLower(message)
	if rules.ContainsAny(message, emergencyIndicatorKeywords...) {
		return true
	}
	// Chest pain together with respiratory distress escalates on its own.
	if strings.Contains(lower, "chest pain") &&
		rules.ContainsAny(message, "breathing", "shortness", "dizzy") {
		return true
	}
	return false
}

func triageConfidence(symptoms []string, priority models.Priority) float64 {
	score := 0.7
	if len(symptoms) >= 3 {
		score += 0.1
	}
	if priority == models.PriorityEmergency {
		score += 0.2
	}
	if len(symptoms) > 0 {
		score += 0.1
	}
	return capConfidence(score)
}

func triageAction(priority models.Priority, emergency bool) string {
	switch {
	case priority == models.PriorityEmergency || emergency:
		return "escalate_to_emergency"
	case priority == models.PriorityHigh:
		return "schedule_urgent_appointment"
	case priority == models.PriorityMedium:
		return "schedule_routine_appointment"
	default:
		return "provide_self_care_guidance"
	}
}

func timeframeFor(priority models.Priority) string {
	switch priority {
	case models.PriorityEmergency:
		return "Immediate - Call 911 or go to ER"
	case models.PriorityHigh:
		return "Same day or within 24 hours"
	case models.PriorityMedium:
		return "Within 1-3 days"
	default:
		return "Within 1-2 weeks"
	}
}

func careInstructions(priority models.Priority) []string {
	switch priority {
	case models.PriorityEmergency:
		return []string{
			"Seek immediate emergency medical attention",
			"Call 911 if symptoms are severe",
			"Do not drive yourself to the hospital",
			"Have someone stay with you if possible",
		}
	case models.PriorityHigh:
		return []string{
			"Contact your healthcare provider today",
			"Monitor symptoms closely",
			"Seek urgent care if symptoms worsen",
			"Keep a record of symptom changes",
		}
	case models.PriorityMedium:
		return []string{
			"Schedule an appointment with your doctor",
			"Monitor symptoms and note any changes",
			"Take over-the-counter medications as appropriate",
			"Rest and stay hydrated",
		}
	default:
		return []string{
			"Monitor symptoms for a few days",
			"Schedule routine appointment if symptoms persist",
			"Practice self-care measures",
			"Contact doctor if symptoms worsen",
		}
	}
}

func priorityHeading(p models.Priority) string {
	switch p {
	case models.PriorityEmergency:
		return "🚨 EMERGENCY PRIORITY"
	case models.PriorityHigh:
		return "⚠️ HIGH PRIORITY"
	case models.PriorityMedium:
		return "📋 MEDIUM PRIORITY"
	default:
		return "📝 LOW PRIORITY"
	}
}

func triageMessage(analysis models.SymptomAnalysis, completion string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", priorityHeading(analysis.Severity))
	fmt.Fprintf(&b, "Triage Assessment: %s\n\n", completion)
	if len(analysis.Symptoms) > 0 {
		fmt.Fprintf(&b, "Identified Symptoms: %s\n", strings.Join(analysis.Symptoms, ", "))
	}
	if analysis.SpecialtyRequired != "" {
		fmt.Fprintf(&b, "Recommended Specialty: %s\n", titleCase(analysis.SpecialtyRequired))
	}
	if analysis.Urgency {
		b.WriteString("\n⚠️ This appears to require urgent medical attention.")
	}
	return b.String()
}

func titleCase(s string) string {
	parts := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
