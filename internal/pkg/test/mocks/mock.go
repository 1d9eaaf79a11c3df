package mocks

import (
	"context"
	"io"

	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/airenas/medscribe/internal/pkg/recognition/api"
	"github.com/airenas/medscribe/internal/pkg/sheet"
	"github.com/stretchr/testify/mock"
)

// Storage is audio storage mock
type Storage struct{ mock.Mock }

func (m *Storage) Upload(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	args := m.Called(ctx, bucket, name, data, contentType)
	return args.Error(0)
}

func (m *Storage) Delete(ctx context.Context, bucket, name string) {
	m.Called(ctx, bucket, name)
}

// Recognizer is speech client mock
type Recognizer struct{ mock.Mock }

func (m *Recognizer) Submit(ctx context.Context, audioURI, contentType string) (string, error) {
	args := m.Called(ctx, audioURI, contentType)
	return args.String(0), args.Error(1)
}

func (m *Recognizer) Recognize(ctx context.Context, audioURI string, cfg api.RecognitionConfig) (*api.RecognizeResponse, error) {
	args := m.Called(ctx, audioURI, cfg)
	return to[*api.RecognizeResponse](args.Get(0)), args.Error(1)
}

// StatusGetter is operation status mock
type StatusGetter struct{ mock.Mock }

func (m *StatusGetter) Status(ctx context.Context, name string) (*api.Operation, error) {
	args := m.Called(ctx, name)
	return to[*api.Operation](args.Get(0)), args.Error(1)
}

// Generator is text generation mock
type Generator struct{ mock.Mock }

func (m *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// Templates is custom template repository mock
type Templates struct{ mock.Mock }

func (m *Templates) Instructions(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *Templates) Save(ctx context.Context, name, instructions string) ([]string, error) {
	args := m.Called(ctx, name, instructions)
	return to[[]string](args.Get(0)), args.Error(1)
}

func (m *Templates) All(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	return to[map[string]string](args.Get(0)), args.Error(1)
}

func (m *Templates) Delete(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	return to[[]string](args.Get(0)), args.Error(1)
}

// Training is training examples repository mock
type Training struct{ mock.Mock }

func (m *Training) All(ctx context.Context) ([]properties.Example, error) {
	args := m.Called(ctx)
	return to[[]properties.Example](args.Get(0)), args.Error(1)
}

func (m *Training) Add(ctx context.Context, transcript, originalNote, improvedNote string) (int, error) {
	args := m.Called(ctx, transcript, originalNote, improvedNote)
	return args.Int(0), args.Error(1)
}

func (m *Training) Export(ctx context.Context, w io.Writer) (int, error) {
	args := m.Called(ctx, w)
	return args.Int(0), args.Error(1)
}

// SheetLogger is transcription log mock
type SheetLogger struct{ mock.Mock }

func (m *SheetLogger) Append(ctx context.Context, e *sheet.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
