package note

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/metrics"
	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/airenas/medscribe/internal/pkg/soap"
)

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TemplateSource provides user defined template instructions
type TemplateSource interface {
	Instructions(ctx context.Context, name string) (string, error)
}

// ExampleSource provides training examples
type ExampleSource interface {
	All(ctx context.Context) ([]properties.Example, error)
}

// Result of the synthesis
type Result struct {
	Transcript string
	Note       string
	// AI is false when the note is made by the heuristic extractor
	AI bool
}

// Synthesizer makes a SOAP note from transcript, never fails
type Synthesizer struct {
	generator Generator
	templates TemplateSource
	examples  ExampleSource

	lock sync.Mutex
	rnd  *rand.Rand
}

// NewSynthesizer creates synthesizer, templates and examples are optional
func NewSynthesizer(generator Generator, templates TemplateSource, examples ExampleSource) (*Synthesizer, error) {
	if generator == nil {
		return nil, fmt.Errorf("no generator")
	}
	return &Synthesizer{generator: generator, templates: templates, examples: examples,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}, nil
}

// Synthesize generates the note with the model, falls back to the heuristic note on any failure
func (s *Synthesizer) Synthesize(ctx context.Context, req *Request) *Result {
	prompt := s.enrich(ctx, BuildPrompt(req, s.templateText(ctx, req)))
	res := &Result{Transcript: req.Transcript}
	note, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("note generation failed, using heuristic note")
		metrics.Notes.WithLabelValues("heuristic").Inc()
		res.Note = soap.Generate(req.Transcript)
		return res
	}
	metrics.Notes.WithLabelValues("ai").Inc()
	res.Note, res.AI = note, true
	return res
}

func (s *Synthesizer) templateText(ctx context.Context, req *Request) string {
	if req.Template == "" || req.Template == TemplateNone {
		return ""
	}
	stored := ""
	if s.templates != nil && !IsPredefined(req.Template) &&
		!(req.Template == TemplateCustom && req.TemplateInstructions != "") {
		var err error
		stored, err = s.templates.Instructions(ctx, req.Template)
		if err != nil {
			goapp.Log.Warn().Err(err).Str("template", goapp.Sanitize(req.Template)).Msg("can't load template")
		}
	}
	return TemplateGuidance(req.Template, req.TemplateInstructions, stored)
}

func (s *Synthesizer) enrich(ctx context.Context, prompt string) string {
	if s.examples == nil {
		return prompt
	}
	ex, err := s.examples.All(ctx)
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("can't load training examples")
		return prompt
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return Enrich(prompt, ex, s.rnd)
}
