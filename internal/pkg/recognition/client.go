package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/recognition/api"
)

// TokenProvider returns bearer token for API calls
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// SubmissionError indicates that a recognition job was not started
type SubmissionError struct {
	Code int
	Body string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("Failed to start Speech-to-Text job: %d - %s", e.Code, e.Body)
}

// Client communicates with the speech recognition service
type Client struct {
	httpclient *http.Client
	url        string
	tokens     TokenProvider
	timeout    time.Duration
}

// NewClient creates a speech client, url is the API version root, e.g. https://speech.googleapis.com/v1
func NewClient(urlStr string, tokens TokenProvider) (*Client, error) {
	if urlStr == "" {
		return nil, fmt.Errorf("no speech URL")
	}
	if !strings.HasPrefix(urlStr, "http") {
		return nil, fmt.Errorf("no http in speech URL")
	}
	if tokens == nil {
		return nil, fmt.Errorf("no token provider")
	}
	res := Client{}
	res.url = strings.TrimRight(urlStr, "/")
	res.tokens = tokens
	res.httpclient = speechHTTPClient()
	res.timeout = time.Second * 50
	goapp.Log.Info().Str("url", res.url).Msg("cfg: speech")
	return &res, nil
}

// Submit starts a long running recognition job for the stored audio and returns the operation name
func (c *Client) Submit(ctx context.Context, audioURI, contentType string) (string, error) {
	cfg := NewConfig(contentType)
	goapp.Log.Info().Str("encoding", cfg.Encoding).Int("rate", cfg.SampleRateHertz).Str("uri", audioURI).Msg("submit")
	code, body, err := c.post(ctx, c.url+"/speech:longrunningrecognize",
		api.RecognizeRequest{Config: cfg, Audio: api.RecognitionAudio{URI: audioURI}})
	if err != nil {
		return "", err
	}
	if code < 200 || code >= 300 {
		return "", &SubmissionError{Code: code, Body: string(body)}
	}
	var op api.Operation
	if err := json.Unmarshal(body, &op); err != nil || op.Name == "" {
		return "", &SubmissionError{Code: code, Body: string(body)}
	}
	goapp.Log.Info().Str("operation", op.Name).Msg("recognition job started")
	return op.Name, nil
}

// Status returns the current state of the operation
func (c *Client) Status(ctx context.Context, name string) (*api.Operation, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancelF := context.WithTimeout(ctx, c.timeout)
	defer cancelF()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/operations/%s", c.url, url.PathEscape(name)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("can't call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		return nil, fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
	}
	res := &api.Operation{}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return nil, fmt.Errorf("can't unmarshal: %w", err)
	}
	return res, nil
}

// Recognize runs synchronous recognition, for short audio only
func (c *Client) Recognize(ctx context.Context, audioURI string, cfg api.RecognitionConfig) (*api.RecognizeResponse, error) {
	code, body, err := c.post(ctx, c.url+"/speech:recognize",
		api.RecognizeRequest{Config: cfg, Audio: api.RecognitionAudio{URI: audioURI}})
	if err != nil {
		return nil, err
	}
	if code < 200 || code >= 300 {
		return nil, fmt.Errorf("speech API error: %d - %s", code, goapp.Sanitize(string(body)))
	}
	res := &api.RecognizeResponse{}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, fmt.Errorf("can't unmarshal: %w", err)
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, urlStr string, data interface{}) (int, []byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, nil, err
	}
	b, err := json.Marshal(data)
	if err != nil {
		return 0, nil, fmt.Errorf("can't marshal request: %w", err)
	}
	ctx, cancelF := context.WithTimeout(ctx, c.timeout)
	defer cancelF()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	goapp.Log.Info().Str("url", req.URL.String()).Str("method", req.Method).Msg("call")
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("can't call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	br, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("can't read body: %w", err)
	}
	return resp.StatusCode, br, nil
}

func speechHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxIdleConns = 20
	res.MaxIdleConnsPerHost = 10
	res.IdleConnTimeout = 90 * time.Second
	return res
}
