package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/poller"
	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/airenas/medscribe/internal/pkg/scribe"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

// Transcriber runs the audio pipeline
type Transcriber interface {
	TranscribeAndNote(ctx context.Context, req *scribe.Request) *scribe.Result
	TranscribeChunk(ctx context.Context, audio []byte, contentType string) *scribe.ChunkResult
}

// TemplateManager manages custom templates
type TemplateManager interface {
	Save(ctx context.Context, name, instructions string) ([]string, error)
	All(ctx context.Context) (map[string]string, error)
	Delete(ctx context.Context, name string) ([]string, error)
}

// TrainingManager manages training examples
type TrainingManager interface {
	Add(ctx context.Context, transcript, originalNote, improvedNote string) (int, error)
	All(ctx context.Context) ([]properties.Example, error)
	Export(ctx context.Context, w io.Writer) (int, error)
}

// StatusChecker checks a recognition job once
type StatusChecker interface {
	Check(ctx context.Context, handle string) (poller.Outcome, error)
}

// Data keeps data required for service work
type Data struct {
	Port        int
	Transcriber Transcriber
	Templates   TemplateManager
	Training    TrainingManager
	Checker     StatusChecker
}

const (
	prmFile                 = "file"
	prmSpecialty            = "specialty"
	prmDetailLevel          = "detailLevel"
	prmTemplate             = "template"
	prmTemplateInstructions = "templateInstructions"
	prmContentType          = "contentType"

	defaultChunkContentType = "audio/webm"
	maxAudioSize            = 100 << 20
)

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP medscribe service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 180 * time.Second
	// the pipeline waits up to 350s for the transcript
	e.Server.WriteTimeout = 420 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.Transcriber == nil {
		return errors.New("no transcriber")
	}
	if data.Templates == nil {
		return fmt.Errorf("no templates")
	}
	if data.Training == nil {
		return fmt.Errorf("no training")
	}
	if data.Checker == nil {
		return fmt.Errorf("no status checker")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("medscribe", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.BodyLimit("110M"))
	promMdlw.Use(e)

	e.POST("/transcribe", transcribe(data))
	e.POST("/transcribe/chunk", transcribeChunk(data))
	e.GET("/realtime", realtimeHandler(data))
	e.GET("/operations/:name", operationStatus(data))
	e.GET("/templates", templates(data))
	e.PUT("/templates/:name", saveTemplate(data))
	e.DELETE("/templates/:name", deleteTemplate(data))
	e.GET("/training", training(data))
	e.POST("/training", addTraining(data))
	e.GET("/training/export", exportTraining(data))
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func transcribe(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("transcribe method")()

		form, err := c.MultipartForm()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no multipart form data")
		}
		defer cleanFiles(form)
		if err := validateFormParams(form, prmSpecialty, prmDetailLevel, prmTemplate,
			prmTemplateInstructions, prmContentType); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		audio, contentType, err := readFile(form)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		req := &scribe.Request{Audio: audio, ContentType: takeValue(form, prmContentType, contentType),
			Specialty:            takeValue(form, prmSpecialty, ""),
			DetailLevel:          takeValue(form, prmDetailLevel, ""),
			Template:             takeValue(form, prmTemplate, ""),
			TemplateInstructions: takeValue(form, prmTemplateInstructions, ""),
		}
		goapp.Log.Info().Str("specialty", goapp.Sanitize(req.Specialty)).Str("detail", goapp.Sanitize(req.DetailLevel)).
			Str("template", goapp.Sanitize(req.Template)).Msg("request info")
		return c.JSON(http.StatusOK, data.Transcriber.TranscribeAndNote(c.Request().Context(), req))
	}
}

func transcribeChunk(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("chunk method")()

		form, err := c.MultipartForm()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no multipart form data")
		}
		defer cleanFiles(form)
		if err := validateFormParams(form, prmContentType); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		audio, contentType, err := readFile(form)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = defaultChunkContentType
		}
		return c.JSON(http.StatusOK, data.Transcriber.TranscribeChunk(c.Request().Context(), audio,
			takeValue(form, prmContentType, contentType)))
	}
}

type operationResult struct {
	OperationName string `json:"operationName"`
	Status        string `json:"status"`
	Transcript    string `json:"transcript,omitempty"`
	Error         string `json:"error,omitempty"`
}

func operationStatus(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("operation method")()

		name := c.Param("name")
		if name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "no operation name")
		}
		out, err := data.Checker.Check(c.Request().Context(), name)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
		}
		return c.JSON(http.StatusOK, operationResult{OperationName: name, Status: out.Kind.String(),
			Transcript: out.Transcript, Error: out.Message})
	}
}

func validateFormParams(form *multipart.Form, allowedPrms ...string) error {
	allowed := map[string]bool{}
	for _, p := range allowedPrms {
		allowed[p] = true
	}
	for k := range form.Value {
		if !allowed[k] {
			return errors.Errorf("unknown parameter '%s'", k)
		}
	}
	if len(form.File[prmFile]) == 0 {
		return errors.New("no form file parameter 'file'")
	}
	for k := range form.File {
		if k != prmFile {
			return errors.Errorf("unexpected form file parameters '%v'", k)
		}
	}
	return nil
}

func readFile(form *multipart.Form) ([]byte, string, error) {
	handler := takeFirst(form.File[prmFile], nil)
	if handler == nil {
		return nil, "", http.ErrMissingFile
	}
	if handler.Size > maxAudioSize {
		return nil, "", errors.Errorf("file too large, max %d bytes", maxAudioSize)
	}
	f, err := handler.Open()
	if err != nil {
		return nil, "", fmt.Errorf("can't open file: %w", err)
	}
	defer f.Close()
	var b bytes.Buffer
	if _, err := b.ReadFrom(io.LimitReader(f, maxAudioSize)); err != nil {
		return nil, "", fmt.Errorf("can't read file: %w", err)
	}
	if b.Len() == 0 {
		return nil, "", errors.New("empty file")
	}
	return b.Bytes(), handler.Header.Get(echo.HeaderContentType), nil
}

func takeValue(form *multipart.Form, name, def string) string {
	if v := takeFirst(form.Value[name], ""); v != "" {
		return v
	}
	return def
}

func takeFirst[K interface{}](a []K, d K) K {
	if len(a) > 0 {
		return a[0]
	}
	return d
}

func cleanFiles(f *multipart.Form) {
	if f != nil {
		_ = f.RemoveAll()
	}
}
