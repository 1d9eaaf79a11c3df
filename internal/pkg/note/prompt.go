package note

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/airenas/medscribe/internal/pkg/properties"
)

const (
	maxExamples        = 2
	exampleTranscriptN = 200
	exampleNoteN       = 300
)

// Request holds note generation input
type Request struct {
	Transcript           string
	Specialty            string
	DetailLevel          string
	Template             string
	TemplateInstructions string
}

// BuildPrompt assembles the model prompt from the request and resolved template guidance
func BuildPrompt(req *Request, templateText string) string {
	specialty := req.Specialty
	if specialty == "" {
		specialty = defaultSpecialty
	}
	return fmt.Sprintf(`You are an expert medical scribe with experience in creating detailed SOAP notes for %s practice.
    
    I will provide you with a transcript of a medical encounter. Please convert this into a well-structured SOAP note.
    
    SOAP Note Format:
    - Subjective: Patient's history, complaints, and symptoms as described by the patient
    - Objective: Physical examination findings, vital signs, and test results
      * IMPORTANT: Extract and format all vital signs properly (BP, HR, RR, O2 sat, temp, etc.)
      * Organize physical exam findings by body system
      * Do NOT include transcription artifacts like "uhm", "uh", etc. in the objective section
      * Convert casual language to formal medical documentation
    - Assessment: Diagnosis or clinical impression based on subjective and objective data
    - Plan: Treatment plan, medications, follow-up instructions, and referrals
      * Include patient education points
      * Include follow-up timeline
    
    %s
    %s
    %s
    
    Here is the transcript:
    %s
    
    Please provide a comprehensive SOAP note based on this transcript. Format the note professionally with clear section headers and bullet points where appropriate. Ensure all medical terminology is accurate and properly spelled. Output only the SOAP note sections with no additional commentary.`,
		specialty, SpecialtyGuidance(req.Specialty), DetailGuidance(req.DetailLevel), templateText, req.Transcript)
}

// Enrich appends up to two randomly selected examples to the prompt
func Enrich(prompt string, examples []properties.Example, rnd *rand.Rand) string {
	if len(examples) == 0 {
		return prompt
	}
	selected := make([]properties.Example, len(examples))
	copy(selected, examples)
	rnd.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	if len(selected) > maxExamples {
		selected = selected[:maxExamples]
	}

	res := strings.Builder{}
	res.WriteString(prompt)
	res.WriteString("\n\nHere are examples of how to convert transcripts to SOAP notes:\n")
	for i, e := range selected {
		res.WriteString(fmt.Sprintf("\nExample %d:\n", i+1))
		res.WriteString(fmt.Sprintf("Transcript: %s...\n", cut(e.Transcript, exampleTranscriptN)))
		res.WriteString(fmt.Sprintf("Correct SOAP Note: %s...\n", cut(e.ImprovedNote, exampleNoteN)))
	}
	return res.String()
}

func cut(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
