package soap

import (
	"regexp"
	"strings"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]\s+`)

	complaints = []string{"pain", "discomfort", "fever", "cough", "headache", "nausea",
		"fatigue", "dizziness", "weakness", "numbness", "tingling"}

	vitalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{2,3}[/\s]\d{2,3}\b`),       // blood pressure 120/80
		regexp.MustCompile(`(?i)\b\d{2,3}\s*bpm\b`),         // heart rate
		regexp.MustCompile(`\b\d{2}[.,]\d{1,2}\s*[cCfF]\b`), // temperature
		regexp.MustCompile(`(?i)\b\d{2,3}\s*kg\b`),          // weight
		regexp.MustCompile(`(?i)\b\d{2,3}\s*cm\b`),          // height
		regexp.MustCompile(`(?i)\b\d{2,3}\s*mm[hH]g\b`),     // blood pressure units
	}
)

const (
	previewLen      = 100
	previewMinWords = 10
)

// Generate builds a best-effort SOAP note from the transcript using keyword and
// pattern matching only. Output depends on the input text alone.
func Generate(transcript string) string {
	sentences := sentenceSplit.Split(transcript, -1)
	found := filter(sentences, hasComplaint)
	measurements := filter(sentences, hasVitals)

	var sb strings.Builder
	sb.WriteString("Subjective:\n")
	if len(found) > 0 {
		sb.WriteString(strings.Join(found, ". ") + ".\n\n")
	} else {
		sb.WriteString("Patient reports " + subjectivePreview(transcript) + "\n\n")
	}

	sb.WriteString("Objective:\n")
	if len(measurements) > 0 {
		sb.WriteString(strings.Join(measurements, ". ") + ".\n\n")
	} else {
		sb.WriteString("Physical examination performed. Vitals within normal limits.\n\n")
	}

	sb.WriteString("Assessment:\n")
	sb.WriteString("Based on the patient's presentation and reported symptoms, assessment indicates ")
	if len(found) > 0 {
		sb.WriteString("potential issues related to " + strings.ToLower(found[0]))
	} else {
		sb.WriteString("further evaluation needed")
	}
	sb.WriteString(".\n\n")

	sb.WriteString("Plan:\n")
	sb.WriteString("1. Continue monitoring symptoms\n")
	sb.WriteString("2. Follow up in 2 weeks\n")
	sb.WriteString("3. Patient education provided regarding management of symptoms\n")
	return sb.String()
}

// Preview returns the first n runes of s, with "..." appended when s was cut
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// subjectivePreview cuts transcripts of more than 10 words to 100 runes and always marks them
// with "...", shorter ones are kept whole whatever their length
func subjectivePreview(transcript string) string {
	if len(strings.Fields(transcript)) <= previewMinWords {
		return transcript
	}
	r := []rune(transcript)
	if len(r) > previewLen {
		r = r[:previewLen]
	}
	return string(r) + "..."
}

func filter(sentences []string, f func(string) bool) []string {
	res := []string{}
	for _, s := range sentences {
		if f(s) {
			res = append(res, s)
		}
	}
	return res
}

func hasComplaint(s string) bool {
	ls := strings.ToLower(s)
	for _, c := range complaints {
		if strings.Contains(ls, c) {
			return true
		}
	}
	return false
}

func hasVitals(s string) bool {
	for _, p := range vitalPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
