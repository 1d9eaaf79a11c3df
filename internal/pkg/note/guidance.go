package note

import "strings"

const (
	// TemplateNone disables template guidance
	TemplateNone = "none"
	// TemplateCustom uses instructions sent with the request
	TemplateCustom = "custom"

	defaultSpecialty = "general"
	customPrefix     = "Template Instructions: "
)

var specialtyGuidance = map[string]string{
	"cardiology":  "Focus on cardiovascular findings, EKG results, and heart-related symptoms. Include specific cardiac measurements when available.",
	"dermatology": "Emphasize skin findings with detailed descriptions of lesions, rashes, or other dermatological conditions.",
	"neurology":   "Focus on neurological exam findings, cognitive assessments, and nervous system symptoms.",
	"orthopedics": "Emphasize musculoskeletal findings, joint examinations, and mobility assessments.",
	"pediatrics":  "Include age-appropriate developmental assessments and growth parameters. Adjust language for pediatric context.",
	"psychiatry":  "Focus on mental status examination, mood, affect, and cognitive function. Include risk assessments when relevant.",
	"general":     "Create a comprehensive note covering all relevant body systems mentioned in the transcript.",
}

var detailGuidance = map[string]string{
	"detailed": "Create a highly detailed clinical note with comprehensive findings and extensive plan elements.",
	"concise":  "Create a concise, focused note highlighting only the most important findings and recommendations.",
	"standard": "Create a standard clinical note with appropriate level of detail for routine documentation.",
}

var templateGuidance = map[string]string{
	"followup": `
      This is a FOLLOW-UP VISIT. Please emphasize:
      - Changes since the last visit
      - Response to previous treatments
      - Progress toward treatment goals
      - Any new concerns that have developed
      - Adjustments to the existing treatment plan
    `,
	"newpatient": `
      This is a NEW PATIENT VISIT. Please emphasize:
      - Comprehensive history
      - Complete review of systems
      - Detailed family and social history
      - Thorough physical examination
      - Initial assessment and differential diagnosis
      - Comprehensive initial treatment plan including any necessary testing
    `,
	"chronic": `
      This is a CHRONIC CONDITION MANAGEMENT visit. Please emphasize:
      - Long-term symptom management
      - Medication compliance and side effects
      - Disease progression or stability
      - Impact on quality of life
      - Adjustments to long-term management plan
      - Preventive measures to avoid complications
    `,
	"acute": `
      This is an ACUTE ILLNESS visit. Please emphasize:
      - Onset and progression of symptoms
      - Severity and impact of current symptoms
      - Focused examination findings related to the acute condition
      - Clear diagnosis of the acute condition when possible
      - Specific treatment plan with timeline for expected improvement
      - Return precautions and follow-up instructions
    `,
	"preventive": `
      This is a PREVENTIVE CARE visit. Please emphasize:
      - Age and risk-appropriate screening
      - Immunization status and updates
      - Health maintenance activities
      - Risk factor assessment and modification
      - Patient education on preventive measures
      - Recommendations for future preventive services
    `,
	TemplateNone: "",
}

// SpecialtyGuidance returns guidance for the specialty, general is the default
func SpecialtyGuidance(specialty string) string {
	if res, ok := specialtyGuidance[strings.ToLower(specialty)]; ok {
		return res
	}
	return specialtyGuidance[defaultSpecialty]
}

// DetailGuidance returns guidance for the detail level, standard is the default
func DetailGuidance(level string) string {
	if res, ok := detailGuidance[strings.ToLower(level)]; ok {
		return res
	}
	return detailGuidance["standard"]
}

// TemplateGuidance resolves template text. Stored is a user defined template found by name, may be empty.
// Unknown templates give empty guidance.
func TemplateGuidance(template, instructions, stored string) string {
	if template == TemplateCustom && instructions != "" {
		return customPrefix + instructions
	}
	if res, ok := templateGuidance[template]; ok {
		return res
	}
	if stored != "" {
		return customPrefix + stored
	}
	return ""
}

// IsPredefined returns true for the built-in template names
func IsPredefined(template string) bool {
	_, ok := templateGuidance[template]
	return ok
}
