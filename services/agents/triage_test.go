package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinodyk/patient-appointments/models"
)

func invokeTriage(t *testing.T, message string, sess *models.SessionContext) models.AgentResponse {
	t.Helper()
	if sess == nil {
		sess = models.NewSessionContext()
	}
	agent := NewTriageAgent(nil)
	resp, err := agent.Invoke(context.Background(), message, sess)
	require.NoError(t, err)
	return resp
}

func triageData(t *testing.T, resp models.AgentResponse) models.TriageData {
	t.Helper()
	data, ok := resp.Data.(models.TriageData)
	require.True(t, ok, "triage stage payload type")
	return data
}

func TestAssessPriority(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    models.Priority
	}{
		{"emergency symptom", "I'm having chest pain right now", models.PriorityEmergency},
		{"high priority symptom", "persistent vomiting since last night", models.PriorityHigh},
		{"severity word escalates", "the pain in my knee is unbearable", models.PriorityHigh},
		{"medium symptom", "I have a headache and some nausea", models.PriorityMedium},
		{"routine", "I'd like an annual checkup", models.PriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assessPriority(tt.message))
		})
	}
}

func TestDetermineSpecialty(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"heart keyword", "my heart is racing", "cardiology"},
		{"lung keyword", "my lung feels tight", "pulmonology"},
		{"skin keyword", "itchy skin patches", "dermatology"},
		{"joint keyword", "joint stiffness in the morning", "orthopedics"},
		{"headache", "recurring headache", "neurology"},
		{"throat", "my throat hurts", "otolaryngology"},
		{"fallback", "I feel tired all the time", "general_practice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineSpecialty(tt.message, nil))
		})
	}
}

func TestCheckEmergencyIndicators(t *testing.T) {
	assert.True(t, checkEmergencyIndicators("call an ambulance"))
	assert.True(t, checkEmergencyIndicators("chest pain and shortness of breath"),
		"chest pain with respiratory distress escalates")
	assert.False(t, checkEmergencyIndicators("mild chest pain after exercise"))
	assert.False(t, checkEmergencyIndicators("I have a cold"))
}

func TestTriageAgent_Invoke(t *testing.T) {
	resp := invokeTriage(t, "severe headache with nausea and dizziness for two days", nil)
	data := triageData(t, resp)

	assert.Equal(t, models.PriorityHigh, data.SymptomAnalysis.Severity)
	assert.Equal(t, "neurology", data.SymptomAnalysis.SpecialtyRequired)
	assert.Contains(t, data.SymptomAnalysis.Symptoms, "headache")
	assert.Contains(t, data.SymptomAnalysis.Symptoms, "nausea")
	assert.Equal(t, "Same day or within 24 hours", data.RecommendedTimeframe)
	assert.Equal(t, "schedule_urgent_appointment", resp.ActionTaken)
	assert.NotEmpty(t, data.CareInstructions)

	// 0.7 base + three symptoms + symptoms present.
	assert.InDelta(t, 0.9, resp.Confidence, 1e-9)
}

func TestTriageAgent_MergesSessionSymptoms(t *testing.T) {
	sess := models.NewSessionContext()
	sess.SymptomAnalysis = &models.SymptomAnalysis{
		Symptoms: []string{"fever"},
		Severity: models.PriorityMedium,
	}

	resp := invokeTriage(t, "now I also have a rash", sess)
	data := triageData(t, resp)

	assert.Contains(t, data.SymptomAnalysis.Symptoms, "fever")
	assert.Contains(t, data.SymptomAnalysis.Symptoms, "rash")
}

func TestTriageAgent_EmergencyFlow(t *testing.T) {
	resp := invokeTriage(t, "chest pain and I can't breathe", nil)
	data := triageData(t, resp)

	assert.Equal(t, models.PriorityEmergency, data.SymptomAnalysis.Severity)
	assert.True(t, data.EmergencyIndicators)
	assert.Equal(t, "escalate_to_emergency", resp.ActionTaken)
	assert.Equal(t, "Immediate - Call 911 or go to ER", data.RecommendedTimeframe)
	assert.Contains(t, resp.Message, "EMERGENCY PRIORITY")
}
