package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/services/llm"
	"github.com/vinodyk/patient-appointments/services/rules"
)

const comorbiditySystemPrompt = `You are a specialized medical AI assistant focused on comorbidity and risk factor analysis.
Your role is to:
1. Identify potential risk factors from patient information
2. Assess how existing conditions might interact with current symptoms
3. Evaluate increased risk levels due to comorbidities
4. Provide recommendations for additional precautions or specialist referrals

Assessment Guidelines:
- Consider drug interactions and contraindications
- Evaluate symptoms in context of existing conditions
- Identify when comorbidities require specialist care
- Recommend monitoring protocols for high-risk patients

Provide risk assessment with specific recommendations for monitoring and care coordination.`

var highRiskConditions = []string{
	"diabetes", "heart disease", "hypertension", "cancer", "kidney disease",
	"liver disease", "lung disease", "copd", "asthma", "stroke history",
}

var immunocompromisingConditions = []string{
	"hiv", "aids", "chemotherapy", "immunosuppressant", "organ transplant",
	"autoimmune", "lupus", "rheumatoid arthritis", "crohns", "ulcerative colitis",
}

var cardiovascularRisks = []string{
	"high blood pressure", "hypertension", "heart attack", "cardiac",
	"coronary artery disease", "atrial fibrillation", "heart failure",
}

var respiratoryRisks = []string{
	"asthma", "copd", "emphysema", "lung disease", "pulmonary",
	"breathing problems", "oxygen", "inhaler",
}

var highInteractionDrugs = []string{
	"warfarin", "blood thinner", "insulin", "metformin", "lithium",
	"digoxin", "phenytoin", "theophylline",
}

var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*years?\s*old`),
	regexp.MustCompile(`age\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*yr`),
}

// ComorbidityAgent evaluates risk factors and condition interactions that
// may complicate the patient's current complaint.
type ComorbidityAgent struct {
	llm llm.CompletionClient
}

func NewComorbidityAgent(client llm.CompletionClient) *ComorbidityAgent {
	return &ComorbidityAgent{llm: client}
}

func (a *ComorbidityAgent) Name() string { return "Comorbidity Agent" }

func (a *ComorbidityAgent) Invoke(ctx context.Context, message string, sess *models.SessionContext) (models.AgentResponse, error) {
	completion, err := complete(ctx, a.llm, a.Name(), comorbiditySystemPrompt, message, sess)
	if err != nil {
		return models.AgentResponse{}, err
	}

	factors := extractRiskFactors(message, sess)
	level := assessRiskLevel(factors)
	recs := riskRecommendations(factors, level)

	risk := models.ComorbidityRisk{
		RiskFactors:     factors,
		RiskLevel:       level,
		Recommendations: recs,
	}

	return models.AgentResponse{
		AgentName:   a.Name(),
		Message:     comorbidityMessage(risk, completion),
		Confidence:  comorbidityConfidence(factors, level),
		ActionTaken: comorbidityAction(level, factors),
		Data: models.ComorbidityData{
			ComorbidityRisk:        risk,
			InteractionRisks:       checkDrugInteractions(message, factors),
			MonitoringRequirements: monitoringRequirements(factors),
			SpecialistReferrals:    specialistReferrals(factors),
		},
	}, nil
}

func extractRiskFactors(message string, sess *models.SessionContext) []string {
	lower := strings.ToLower(message)
	var factors []string

	for _, p := range agePatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			if age, err := strconv.Atoi(m[1]); err == nil && age >= 65 {
				factors = append(factors, fmt.Sprintf("elderly (age %d)", age))
			}
			break
		}
	}

	for _, cond := range highRiskConditions {
		if strings.Contains(lower, cond) {
			factors = append(factors, cond)
		}
	}
	for _, cond := range immunocompromisingConditions {
		if strings.Contains(lower, cond) {
			factors = append(factors, fmt.Sprintf("immunocompromised (%s)", cond))
		}
	}
	for _, cond := range cardiovascularRisks {
		if strings.Contains(lower, cond) {
			factors = append(factors, fmt.Sprintf("cardiovascular (%s)", cond))
		}
	}
	for _, cond := range respiratoryRisks {
		if strings.Contains(lower, cond) {
			factors = append(factors, fmt.Sprintf("respiratory (%s)", cond))
		}
	}

	if rules.ContainsAny(message, "pregnant", "pregnancy", "expecting") {
		factors = append(factors, "pregnancy")
	}
	if rules.ContainsAny(message, "obese", "obesity", "overweight", "bmi") {
		factors = append(factors, "obesity")
	}

	if sess != nil {
		factors = append(factors, sess.MedicalHistory...)
	}
	return dedupeSorted(factors)
}

func assessRiskLevel(factors []string) models.Priority {
	score := 0
	for _, f := range factors {
		switch {
		case strings.Contains(f, "elderly"):
			score += 2
		case strings.Contains(f, "immunocompromised"):
			score += 3
		case strings.Contains(f, "cardiovascular"):
			score += 2
		case strings.Contains(f, "respiratory"):
			score += 2
		case f == "diabetes" || f == "cancer" || f == "kidney disease":
			score += 2
		default:
			score++
		}
	}
	if len(factors) >= 3 {
		score += 2
	}
	switch {
	case score >= 6:
		return models.PriorityHigh
	case score >= 3:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func riskRecommendations(factors []string, level models.Priority) []string {
	var recs []string
	if level.AtLeast(models.PriorityHigh) {
		recs = append(recs,
			"Close monitoring by healthcare provider recommended",
			"Consider expedited appointment scheduling",
			"Monitor for symptom progression closely",
		)
	}
	if containsFactor(factors, "cardiovascular") {
		recs = append(recs,
			"Monitor blood pressure and heart rate",
			"Consider cardiology consultation",
		)
	}
	if containsFactor(factors, "respiratory") {
		recs = append(recs,
			"Monitor oxygen saturation if available",
			"Have rescue medications readily available",
		)
	}
	if containsFactor(factors, "immunocompromised") {
		recs = append(recs,
			"Take extra precautions to prevent infections",
			"Consider infectious disease consultation if fever present",
		)
	}
	if containsFactor(factors, "diabetes") {
		recs = append(recs,
			"Monitor blood glucose levels closely",
			"Adjust medications as directed by physician",
		)
	}
	if containsFactor(factors, "pregnancy") {
		recs = append(recs,
			"Consult with obstetrician regarding symptoms",
			"Avoid medications not approved for pregnancy",
		)
	}
	if len(factors) >= 2 {
		recs = append(recs,
			"Review all current medications with pharmacist",
			"Coordinate care between specialists",
		)
	}
	return recs
}

func checkDrugInteractions(message string, factors []string) []models.DrugInteraction {
	lower := strings.ToLower(message)
	var interactions []models.DrugInteraction
	for _, drug := range highInteractionDrugs {
		if !strings.Contains(lower, drug) {
			continue
		}
		if strings.Contains(drug, "warfarin") && containsFactor(factors, "diabetes") {
			interactions = append(interactions, models.DrugInteraction{
				Drug:           drug,
				Risk:           "Blood sugar medications may affect warfarin effectiveness",
				Recommendation: "Monitor INR levels closely",
			})
		}
		if strings.Contains(drug, "insulin") && containsFactor(factors, "kidney") {
			interactions = append(interactions, models.DrugInteraction{
				Drug:           drug,
				Risk:           "Kidney disease may affect insulin clearance",
				Recommendation: "Adjust insulin dosing with physician guidance",
			})
		}
	}
	return interactions
}

func monitoringRequirements(factors []string) []string {
	var monitoring []string
	if containsFactor(factors, "cardiovascular") {
		monitoring = append(monitoring, "Blood pressure", "Heart rate", "ECG if indicated")
	}
	if containsFactor(factors, "respiratory") {
		monitoring = append(monitoring, "Oxygen saturation", "Respiratory rate", "Peak flow if available")
	}
	if containsFactor(factors, "diabetes") {
		monitoring = append(monitoring, "Blood glucose levels")
	}
	if containsFactor(factors, "kidney") {
		monitoring = append(monitoring, "Fluid balance", "Electrolytes", "Creatinine levels")
	}
	return monitoring
}

func specialistReferrals(factors []string) []string {
	var referrals []string
	if containsFactor(factors, "cardiovascular") {
		referrals = append(referrals, "Cardiology")
	}
	if containsFactor(factors, "respiratory") {
		referrals = append(referrals, "Pulmonology")
	}
	if containsFactor(factors, "diabetes") {
		referrals = append(referrals, "Endocrinology")
	}
	if containsFactor(factors, "kidney") {
		referrals = append(referrals, "Nephrology")
	}
	if containsFactor(factors, "immunocompromised") {
		referrals = append(referrals, "Infectious Disease")
	}
	if containsFactor(factors, "pregnancy") {
		referrals = append(referrals, "Obstetrics")
	}
	return referrals
}

func comorbidityConfidence(factors []string, level models.Priority) float64 {
	score := 0.8
	if len(factors) >= 2 {
		score += 0.1
	}
	if level == models.PriorityHigh {
		score += 0.1
	}
	return capConfidence(score)
}

func comorbidityAction(level models.Priority, factors []string) string {
	switch {
	case level == models.PriorityHigh:
		return "escalate_to_specialist"
	case len(factors) >= 3:
		return "coordinate_multidisciplinary_care"
	case level == models.PriorityMedium:
		return "enhanced_monitoring"
	default:
		return "standard_care_protocol"
	}
}

func riskHeading(p models.Priority) string {
	switch p {
	case models.PriorityHigh, models.PriorityEmergency:
		return "🔴 HIGH RISK"
	case models.PriorityMedium:
		return "🟡 MODERATE RISK"
	default:
		return "🟢 LOW RISK"
	}
}

func comorbidityMessage(risk models.ComorbidityRisk, completion string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", riskHeading(risk.RiskLevel))
	fmt.Fprintf(&b, "Comorbidity Analysis: %s\n\n", completion)
	if len(risk.RiskFactors) > 0 {
		b.WriteString("Identified Risk Factors:\n")
		for _, f := range risk.RiskFactors {
			fmt.Fprintf(&b, "• %s\n", titleCase(f))
		}
		b.WriteString("\n")
	}
	if len(risk.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, r := range risk.Recommendations {
			fmt.Fprintf(&b, "• %s\n", r)
		}
	}
	return b.String()
}

func containsFactor(factors []string, needle string) bool {
	for _, f := range factors {
		if strings.Contains(f, needle) {
			return true
		}
	}
	return false
}
