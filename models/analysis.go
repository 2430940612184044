package models

// SymptomAnalysis is the triage stage's structured assessment.
type SymptomAnalysis struct {
	Symptoms          []string `json:"symptoms"`
	Severity          Priority `json:"severity"`
	Urgency           bool     `json:"urgency"`
	SpecialtyRequired string   `json:"specialty_required,omitempty"`
}

// ComorbidityRisk is the comorbidity stage's structured assessment.
type ComorbidityRisk struct {
	RiskFactors     []string `json:"risk_factors"`
	RiskLevel       Priority `json:"risk_level"`
	Recommendations []string `json:"recommendations"`
}

// ThreatMatch is one matched security pattern, kept for observability.
type ThreatMatch struct {
	Category string  `json:"category"`
	Pattern  string  `json:"pattern"`
	Severity float64 `json:"severity"`
}

// SecurityData is the security stage payload.
type SecurityData struct {
	SafetyLevel          string        `json:"safety_level"`
	RiskScore            float64       `json:"risk_score"`
	DetectedThreats      []ThreatMatch `json:"detected_threats,omitempty"`
	SuspiciousIndicators []string      `json:"suspicious_indicators,omitempty"`
	ContainsSensitive    bool          `json:"contains_sensitive_info"`
	DisclaimerPresent    bool          `json:"medical_disclaimer_present"`
	BlockedContent       bool          `json:"blocked_content"`
}

// ExtractedInfo holds the facts the intake stage pulls out of a message.
type ExtractedInfo struct {
	Symptoms       []string `json:"symptoms"`
	Duration       string   `json:"duration,omitempty"`
	Severity       string   `json:"severity,omitempty"`
	MedicalHistory []string `json:"medical_history,omitempty"`
}

// IntakeData is the intake stage payload.
type IntakeData struct {
	IsMedical         bool          `json:"is_medical"`
	RequestType       string        `json:"request_type,omitempty"`
	CrisisType        []string      `json:"crisis_type,omitempty"`
	ExtractedInfo     ExtractedInfo `json:"extracted_info"`
	ConversationStage string        `json:"conversation_stage"`
	UrgencyIndicators []string      `json:"urgency_indicators,omitempty"`
	BookingIntent     bool          `json:"booking_intent"`
}

// TriageData is the triage stage payload.
type TriageData struct {
	SymptomAnalysis      SymptomAnalysis `json:"symptom_analysis"`
	EmergencyIndicators  bool            `json:"emergency_indicators"`
	RecommendedTimeframe string          `json:"recommended_timeframe"`
	CareInstructions     []string        `json:"care_instructions"`
}

// DrugInteraction is a single drug-by-condition interaction warning.
type DrugInteraction struct {
	Drug           string `json:"drug"`
	Risk           string `json:"risk"`
	Recommendation string `json:"recommendation"`
}

// ComorbidityData is the comorbidity stage payload.
type ComorbidityData struct {
	ComorbidityRisk        ComorbidityRisk   `json:"comorbidity_risk"`
	InteractionRisks       []DrugInteraction `json:"interaction_risks,omitempty"`
	MonitoringRequirements []string          `json:"monitoring_requirements,omitempty"`
	SpecialistReferrals    []string          `json:"specialist_referrals,omitempty"`
}
