package properties

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/pkg/errors"
)

// MaxExamples kept in the store, older ones are evicted first
const MaxExamples = 50

// Example is a clinician corrected note
type Example struct {
	Timestamp    string `json:"timestamp"`
	Transcript   string `json:"transcript"`
	OriginalNote string `json:"originalNote"`
	ImprovedNote string `json:"improvedNote"`
}

type exportLine struct {
	InputText  string `json:"input_text"`
	OutputText string `json:"output_text"`
}

// Training manages training examples
type Training struct {
	store Store
	max   int
	now   func() time.Time
}

// NewTraining creates training example repository
func NewTraining(store Store) (*Training, error) {
	if store == nil {
		return nil, fmt.Errorf("no store")
	}
	return &Training{store: store, max: MaxExamples, now: time.Now}, nil
}

// Add appends the example and returns the stored count
func (t *Training) Add(ctx context.Context, transcript, originalNote, improvedNote string) (int, error) {
	if transcript == "" || originalNote == "" || improvedNote == "" {
		return 0, fmt.Errorf("all fields are required: %w", ErrValidation)
	}
	all, err := t.All(ctx)
	if err != nil {
		return 0, err
	}
	all = append(all, Example{Timestamp: t.now().UTC().Format(time.RFC3339), Transcript: transcript,
		OriginalNote: originalNote, ImprovedNote: improvedNote})
	if len(all) > t.max {
		all = all[len(all)-t.max:]
	}
	b, err := json.Marshal(all)
	if err != nil {
		return 0, fmt.Errorf("can't encode examples: %w", err)
	}
	if err := t.store.Set(ctx, TrainingKey, string(b)); err != nil {
		return 0, fmt.Errorf("can't save examples: %w", err)
	}
	goapp.Log.Info().Int("count", len(all)).Msg("training example saved")
	return len(all), nil
}

// All returns stored examples, oldest first
func (t *Training) All(ctx context.Context) ([]Example, error) {
	s, err := t.store.Get(ctx, TrainingKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Example{}, nil
		}
		return nil, fmt.Errorf("can't load examples: %w", err)
	}
	res := []Example{}
	if err := json.Unmarshal([]byte(s), &res); err != nil {
		return nil, fmt.Errorf("can't decode examples: %w", err)
	}
	if res == nil {
		res = []Example{}
	}
	return res, nil
}

// Export writes examples as JSONL input/output pairs, returns written count
func (t *Training) Export(ctx context.Context, w io.Writer) (int, error) {
	all, err := t.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, fmt.Errorf("no training examples: %w", ErrNotFound)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range all {
		if err := enc.Encode(exportLine{InputText: e.Transcript, OutputText: e.ImprovedNote}); err != nil {
			return 0, fmt.Errorf("can't write: %w", err)
		}
	}
	return len(all), nil
}
