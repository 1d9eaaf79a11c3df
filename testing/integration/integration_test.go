//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/airenas/medscribe/internal/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type config struct {
	scribeURL  string
	dbURL      string
	httpclient *http.Client
}

var cfg config

func TestMain(m *testing.M) {
	cfg.scribeURL = GetEnvOrFail("SCRIBE_URL")
	cfg.dbURL = GetEnvOrFail("DB_URL")
	cfg.httpclient = &http.Client{Timeout: time.Second * 60}

	// speech and vertex endpoints are not in the docker compose
	l, ts := startMockService(9876)
	defer ts.Close()
	defer l.Close()

	tCtx, cf := context.WithTimeout(context.Background(), time.Second*20)
	defer cf()
	WaitForOpenOrFail(tCtx, cfg.dbURL)
	WaitForOpenOrFail(tCtx, cfg.scribeURL)
	waitForDB(tCtx, cfg.dbURL)

	os.Exit(m.Run())
}

func TestLive(t *testing.T) {
	t.Parallel()
	test.CheckCode(t, test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.scribeURL, "/live", nil)), http.StatusOK)
}

type templatesResponse struct {
	Templates map[string]string `json:"templates"`
}

type namesResponse struct {
	Templates []string `json:"templates"`
}

func TestTemplates(t *testing.T) {
	t.Parallel()
	name := "it-" + fmt.Sprint(time.Now().UnixNano())
	resp := test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodPut, cfg.scribeURL, "/templates/"+name,
		map[string]string{"instructions": "Measure the wound"}))
	test.CheckCode(t, resp, http.StatusOK)
	assert.Contains(t, test.Decode[namesResponse](t, resp).Templates, name)

	resp = test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.scribeURL, "/templates", nil))
	test.CheckCode(t, resp, http.StatusOK)
	assert.Equal(t, "Measure the wound", test.Decode[templatesResponse](t, resp).Templates[name])

	resp = test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodDelete, cfg.scribeURL, "/templates/"+name, nil))
	test.CheckCode(t, resp, http.StatusOK)
	assert.NotContains(t, test.Decode[namesResponse](t, resp).Templates, name)

	test.CheckCode(t, test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodDelete, cfg.scribeURL, "/templates/"+name, nil)),
		http.StatusNotFound)
}

func TestTemplates_Fail_NoInstructions(t *testing.T) {
	t.Parallel()
	test.CheckCode(t, test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodPut, cfg.scribeURL, "/templates/olia",
		map[string]string{"instructions": ""})), http.StatusBadRequest)
}

func TestTraining(t *testing.T) {
	t.Parallel()
	resp := test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodPost, cfg.scribeURL, "/training",
		map[string]string{"transcript": "patient has cough", "originalNote": "S: cough", "improvedNote": "S: dry cough"}))
	test.CheckCode(t, resp, http.StatusOK)

	resp = test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.scribeURL, "/training/export", nil))
	test.CheckCode(t, resp, http.StatusOK)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "scribeai_training_data_")
	assert.Contains(t, test.RStr(t, resp.Body), `"output_text":"S: dry cough"`)
}

type scribeResponse struct {
	Transcript string `json:"transcript"`
	Note       string `json:"note"`
	Error      string `json:"error"`
}

func TestTranscribe(t *testing.T) {
	t.Parallel()
	resp := test.Invoke(t, cfg.httpclient, newTranscribeRequest(t, "/transcribe", "file",
		[][2]string{{"specialty", "cardiology"}, {"detailLevel", "concise"}}))
	test.CheckCode(t, resp, http.StatusOK)
	res := test.Decode[scribeResponse](t, resp)
	require.Empty(t, res.Error)
	assert.Equal(t, "patient has chest pain", res.Transcript)
	assert.Contains(t, res.Note, "SUBJECTIVE")
}

func TestTranscribe_Fail_NoFile(t *testing.T) {
	t.Parallel()
	test.CheckCode(t, test.Invoke(t, cfg.httpclient, newTranscribeRequest(t, "/transcribe", "", nil)), http.StatusBadRequest)
}

func TestTranscribeChunk(t *testing.T) {
	t.Parallel()
	resp := test.Invoke(t, cfg.httpclient, newTranscribeRequest(t, "/transcribe/chunk", "file", nil))
	test.CheckCode(t, resp, http.StatusOK)
	assert.Equal(t, "chunk text", test.Decode[scribeResponse](t, resp).Transcript)
}

func newTranscribeRequest(t *testing.T, path, fileParam string, params [][2]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileParam != "" {
		part, _ := writer.CreateFormFile(fileParam, "audio.webm")
		_, _ = io.Copy(part, strings.NewReader("audio bytes"))
	}
	for _, p := range params {
		_ = writer.WriteField(p[0], p[1])
	}
	_ = writer.Close()
	req, err := http.NewRequest(http.MethodPost, cfg.scribeURL+path, body)
	require.Nil(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func startMockService(port int) (net.Listener, *httptest.Server) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		log.Fatalf("can't start mock service: %v", err)
	}
	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/speech/v1/speech:longrunningrecognize":
			_, _ = io.WriteString(w, `{"name":"op1"}`)
		case r.URL.Path == "/speech/v1/operations/op1":
			_, _ = io.WriteString(w, `{"name":"op1","done":true,"response":{"results":[{"alternatives":[{"transcript":"patient has chest pain"}]}]}}`)
		case r.URL.Path == "/speech/v1/speech:recognize":
			_, _ = io.WriteString(w, `{"results":[{"alternatives":[{"transcript":"chunk text"}]}]}`)
		case strings.HasPrefix(r.URL.Path, "/vertex/v1/projects/"):
			_, _ = io.WriteString(w, `{"predictions":[{"content":"SUBJECTIVE:\nchest pain"}]}`)
		default:
			log.Printf("Unknown request to: %s", r.URL.String())
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ts.Listener.Close()
	ts.Listener = l

	ts.Start()
	log.Printf("started mock srv on port: %d", port)
	return l, ts
}
