// Package agents implements the specialized analysis stages of the patient
// workflow: security screening, intake, medical triage, and comorbidity
// risk. Every stage consumes the message plus session context and produces
// a message, a confidence, an action tag, and a structured payload.
package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/services/llm"
)

// Agent is the capability shared by all workflow stages.
type Agent interface {
	Name() string
	Invoke(ctx context.Context, message string, sess *models.SessionContext) (models.AgentResponse, error)
}

// complete runs the stage's completion call. A nil client degrades to an
// empty completion so the deterministic analysis still runs; a transport
// failure propagates and fails the whole turn.
func complete(ctx context.Context, client llm.CompletionClient, name, systemPrompt, message string, sess *models.SessionContext) (string, error) {
	if client == nil {
		return "", nil
	}
	text, err := client.Complete(ctx, systemPrompt, message, contextSummary(sess))
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", name, err)
	}
	return text, nil
}

// contextSummary renders the carried-forward session facts as a compact
// context block for the completion prompt.
func contextSummary(sess *models.SessionContext) string {
	if sess == nil {
		return ""
	}
	var parts []string
	if sess.ConversationStage != "" {
		parts = append(parts, "stage="+sess.ConversationStage)
	}
	if sess.SymptomAnalysis != nil && len(sess.SymptomAnalysis.Symptoms) > 0 {
		parts = append(parts, "known symptoms: "+strings.Join(sess.SymptomAnalysis.Symptoms, ", "))
	}
	if len(sess.MedicalHistory) > 0 {
		parts = append(parts, "medical history: "+strings.Join(sess.MedicalHistory, ", "))
	}
	if n := len(sess.ConversationHistory); n > 0 {
		last := sess.ConversationHistory[n-1]
		parts = append(parts, "previous message: "+last.UserMessage)
	}
	return strings.Join(parts, "; ")
}

// dedupeSorted removes duplicates and sorts, keeping extraction output
// deterministic across runs.
func dedupeSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func capConfidence(c float64) float64 {
	if c > 1.0 {
		return 1.0
	}
	return c
}
