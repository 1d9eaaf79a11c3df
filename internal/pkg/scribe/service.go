package scribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/auth"
	"github.com/airenas/medscribe/internal/pkg/note"
	"github.com/airenas/medscribe/internal/pkg/poller"
	"github.com/airenas/medscribe/internal/pkg/recognition"
	"github.com/airenas/medscribe/internal/pkg/recognition/api"
	"github.com/airenas/medscribe/internal/pkg/sheet"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Storage keeps audio objects
type Storage interface {
	Upload(ctx context.Context, bucket, name string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket, name string)
}

// Recognizer starts speech recognition
type Recognizer interface {
	Submit(ctx context.Context, audioURI, contentType string) (string, error)
	Recognize(ctx context.Context, audioURI string, cfg api.RecognitionConfig) (*api.RecognizeResponse, error)
}

// Waiter waits for the recognition job
type Waiter interface {
	Wait(ctx context.Context, handle string) poller.Outcome
}

// Synthesizer makes a note from transcript
type Synthesizer interface {
	Synthesize(ctx context.Context, req *note.Request) *note.Result
}

// SheetLogger logs finished transcriptions
type SheetLogger interface {
	Append(ctx context.Context, e *sheet.Entry) error
}

// Data keeps collaborators of the service
type Data struct {
	Storage     Storage
	Recognizer  Recognizer
	Waiter      Waiter
	Synthesizer Synthesizer
	// Sheet is optional
	Sheet     SheetLogger
	Bucket    string
	URIScheme string
	// Limit bounds one TranscribeAndNote call, DefaultLimit when 0
	Limit time.Duration
	// NoteReserve is cut from the wait so a note can still be made, DefaultNoteReserve when 0
	NoteReserve time.Duration
}

const (
	// DefaultLimit matches the host execution ceiling of one request
	DefaultLimit = 350 * time.Second
	// DefaultNoteReserve is left for note synthesis after the wait
	DefaultNoteReserve = 40 * time.Second
)

const (
	// StatusFailed marks a request that produced no transcript
	StatusFailed = "FAILED"
	// StatusStillRunning marks a request whose job outlived the wait
	StatusStillRunning = "STILL_RUNNING"
)

const (
	msgNoAudio       = "Failed to create audio blob."
	msgUpload        = "Failed to upload audio: "
	msgAuth          = "Failed to authenticate with Google Cloud. Please check your OAuth scopes and permissions."
	msgSubmit        = "Failed to start Speech-to-Text job: "
	msgChunkSilence  = "[silence]"
	msgChunkService  = "Error from speech service."
	msgChunkAuth     = "Authentication error for real-time transcription."
	msgChunkFailPref = "Error processing audio chunk: "
)

// Request is one transcription and note request
type Request struct {
	Audio                []byte
	ContentType          string
	Specialty            string
	DetailLevel          string
	Template             string
	TemplateInstructions string
}

// Result is either a transcript with note or an error description
type Result struct {
	Transcript    string `json:"transcript,omitempty"`
	Note          string `json:"note,omitempty"`
	Error         string `json:"error,omitempty"`
	Status        string `json:"status,omitempty"`
	OperationName string `json:"operationName,omitempty"`
	Message       string `json:"message,omitempty"`
}

// ChunkResult is the transcript of a short chunk
type ChunkResult struct {
	Transcript string `json:"transcript"`
}

// Service runs the audio to note pipeline
type Service struct {
	data  *Data
	now   func() time.Time
	newID func() string
}

// NewService creates the pipeline service
func NewService(data *Data) (*Service, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	if data.URIScheme == "" {
		data.URIScheme = "gs"
	}
	if data.Limit == 0 {
		data.Limit = DefaultLimit
	}
	if data.NoteReserve == 0 {
		data.NoteReserve = DefaultNoteReserve
	}
	if data.NoteReserve >= data.Limit {
		return nil, fmt.Errorf("note reserve %v must be less than limit %v", data.NoteReserve, data.Limit)
	}
	goapp.Log.Info().Str("bucket", data.Bucket).Str("scheme", data.URIScheme).Bool("sheet", data.Sheet != nil).Msg("cfg: scribe")
	return &Service{data: data, now: time.Now, newID: func() string { return uuid.New().String() }}, nil
}

func validate(data *Data) error {
	if data == nil {
		return fmt.Errorf("no data")
	}
	if data.Storage == nil {
		return fmt.Errorf("no storage")
	}
	if data.Recognizer == nil {
		return fmt.Errorf("no recognizer")
	}
	if data.Waiter == nil {
		return fmt.Errorf("no waiter")
	}
	if data.Synthesizer == nil {
		return fmt.Errorf("no synthesizer")
	}
	if data.Bucket == "" {
		return fmt.Errorf("no bucket")
	}
	return nil
}

// TranscribeAndNote uploads audio, waits for the transcript and makes a note.
// Failures are returned inside the result.
func (s *Service) TranscribeAndNote(ctx context.Context, req *Request) *Result {
	if len(req.Audio) == 0 {
		return failed(msgNoAudio)
	}
	ctx, cf := context.WithTimeout(ctx, s.data.Limit)
	defer cf()
	name := fmt.Sprintf("audio-%d-%s", s.now().UnixMilli(), s.newID())
	log := goapp.Log.With().Str("ID", name).Logger()
	log.Info().Str("contentType", req.ContentType).Int("size", len(req.Audio)).Msg("transcribe")

	if err := s.data.Storage.Upload(ctx, s.data.Bucket, name, req.Audio, req.ContentType); err != nil {
		log.Error().Err(err).Msg("can't upload")
		return failed(msgUpload + err.Error())
	}
	defer s.data.Storage.Delete(context.Background(), s.data.Bucket, name)

	handle, err := s.data.Recognizer.Submit(ctx, s.uri(name), req.ContentType)
	if err != nil {
		log.Error().Err(err).Msg("can't submit")
		return failed(submitMessage(err))
	}
	log.Info().Str("operation", handle).Msg("waiting")
	out := s.wait(ctx, handle)
	switch out.Kind {
	case poller.Succeeded:
	case poller.TimedOut:
		if out.StillRunning {
			return &Result{Error: out.Message, Status: StatusStillRunning, OperationName: out.Handle, Message: out.Detail}
		}
		return failed(out.Message)
	default:
		return failed(out.Message)
	}

	nr := s.data.Synthesizer.Synthesize(ctx, &note.Request{Transcript: out.Transcript, Specialty: req.Specialty,
		DetailLevel: req.DetailLevel, Template: req.Template, TemplateInstructions: req.TemplateInstructions})
	s.logToSheet(ctx, req, nr)
	log.Info().Bool("ai", nr.AI).Msg("done")
	return &Result{Transcript: nr.Transcript, Note: nr.Note}
}

// TranscribeChunk recognizes a short chunk synchronously. Errors are reported as the transcript text.
func (s *Service) TranscribeChunk(ctx context.Context, audio []byte, contentType string) *ChunkResult {
	name := fmt.Sprintf("temp-chunk-%d-%s", s.now().UnixMilli(), s.newID())
	if err := s.data.Storage.Upload(ctx, s.data.Bucket, name, audio, contentType); err != nil {
		goapp.Log.Error().Err(err).Str("ID", name).Msg("can't upload chunk")
		return &ChunkResult{Transcript: msgChunkFailPref + err.Error()}
	}
	resp, err := s.data.Recognizer.Recognize(ctx, s.uri(name), recognition.ChunkConfig())
	s.data.Storage.Delete(context.Background(), s.data.Bucket, name)
	if err != nil {
		goapp.Log.Error().Err(err).Str("ID", name).Msg("can't recognize chunk")
		var ae *auth.Error
		if errors.As(err, &ae) {
			return &ChunkResult{Transcript: msgChunkAuth}
		}
		return &ChunkResult{Transcript: msgChunkService}
	}
	res := strings.Join(resp.TopTranscripts(), " ")
	if res == "" {
		res = msgChunkSilence
	}
	return &ChunkResult{Transcript: res}
}

// wait ends NoteReserve before the request deadline
func (s *Service) wait(ctx context.Context, handle string) poller.Outcome {
	d, _ := ctx.Deadline()
	wctx, cf := context.WithDeadline(ctx, d.Add(-s.data.NoteReserve))
	defer cf()
	return s.data.Waiter.Wait(wctx, handle)
}

func (s *Service) uri(name string) string {
	return fmt.Sprintf("%s://%s/%s", s.data.URIScheme, s.data.Bucket, name)
}

func (s *Service) logToSheet(ctx context.Context, req *Request, nr *note.Result) {
	if s.data.Sheet == nil {
		return
	}
	template := req.Template
	if template == "" {
		template = note.TemplateNone
	}
	if err := s.data.Sheet.Append(ctx, &sheet.Entry{Time: s.now(), Specialty: req.Specialty, DetailLevel: req.DetailLevel,
		Template: template, Transcript: nr.Transcript, Note: nr.Note}); err != nil {
		goapp.Log.Warn().Err(err).Msg("can't log to sheet")
	}
}

func submitMessage(err error) string {
	var ae *auth.Error
	if errors.As(err, &ae) {
		return msgAuth
	}
	var se *recognition.SubmissionError
	if errors.As(err, &se) {
		return se.Error()
	}
	return msgSubmit + err.Error()
}

func failed(msg string) *Result {
	return &Result{Error: msg, Status: StatusFailed}
}
