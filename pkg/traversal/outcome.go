package traversal

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Urgency of a diagnosis.
type Urgency string

const (
	UrgencyUrgent  Urgency = "urgent"
	UrgencyCaution Urgency = "caution"
)

// GenericDiagnosisName labels a terminal node without result text.
const GenericDiagnosisName = "Symptom diagnosis"

const (
	minConfidencePct = 60
	maxConfidencePct = 95
)

var urgencyKeywords = []string{
	"immediate", "stop use", "stop using", "hazard", "failure", "danger", "fire", "smoke", "gas leak",
	"直ちに", "すぐに", "至急", "使用中止", "危険", "故障", "火災", "発煙", "ガス漏れ",
}

// Outcome is the diagnosis reached at a terminal node.
type Outcome struct {
	DiagnosisName string       `json:"diagnosis_name"`
	ConfidencePct int          `json:"confidence_pct"`
	Urgency       Urgency      `json:"urgency"`
	Cost          CostEstimate `json:"cost_estimate"`
	RawResultText string       `json:"raw_result_text"`
}

// ComputeOutcome derives the outcome for a terminal node's result text.
func ComputeOutcome(category, resultText string, costs *CostTable) Outcome {
	if costs == nil {
		costs = DefaultCostTable()
	}
	return Outcome{
		DiagnosisName: diagnosisName(resultText),
		ConfidencePct: confidencePct(resultText),
		Urgency:       urgency(resultText),
		Cost:          costs.Estimate(category),
		RawResultText: resultText,
	}
}

// headingMarker matches a markdown ATX heading prefix. "#3" is not a heading.
var headingMarker = regexp.MustCompile(`^#{1,6}(?:\s+|$)`)

func diagnosisName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(headingMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			return line
		}
	}
	return GenericDiagnosisName
}

// confidencePct grows with the length of the write-up, in characters.
func confidencePct(text string) int {
	pct := utf8.RuneCountInString(text)/10 + minConfidencePct
	if pct < minConfidencePct {
		return minConfidencePct
	}
	if pct > maxConfidencePct {
		return maxConfidencePct
	}
	return pct
}

func urgency(text string) Urgency {
	lower := strings.ToLower(text)
	for _, kw := range urgencyKeywords {
		if strings.Contains(lower, kw) {
			return UrgencyUrgent
		}
	}
	return UrgencyCaution
}
