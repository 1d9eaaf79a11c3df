package vertex

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
)

// TokenProvider returns bearer token for API calls
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ProjectSource returns the current project id, "" keeps the configured one
type ProjectSource interface {
	Project(ctx context.Context) (string, error)
}

// Options for the generative model endpoint
type Options struct {
	URL      string
	Project  string
	Location string
	Model    string
	// Projects is optional, it is asked for the project on every call
	Projects ProjectSource
}

// Parameters are sampling parameters sent with every prediction
type Parameters struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

// DefaultParameters used for note generation
var DefaultParameters = Parameters{Temperature: 0.2, MaxOutputTokens: 1024, TopP: 0.95, TopK: 40}

type instance struct {
	Content string `json:"content"`
}

type predictRequest struct {
	Instances  []instance `json:"instances"`
	Parameters Parameters `json:"parameters"`
}

type prediction struct {
	Content string `json:"content"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

// Client calls the model predict endpoint
type Client struct {
	httpclient *http.Client
	url        string
	opt        Options
	tokens     TokenProvider
	params     Parameters
	timeout    time.Duration
}

// NewClient creates a predict client
func NewClient(opt Options, tokens TokenProvider) (*Client, error) {
	if opt.URL == "" {
		return nil, fmt.Errorf("no vertex URL")
	}
	if !strings.HasPrefix(opt.URL, "http") {
		return nil, fmt.Errorf("no http in vertex URL")
	}
	if opt.Project == "" || opt.Location == "" || opt.Model == "" {
		return nil, fmt.Errorf("no project, location or model")
	}
	if tokens == nil {
		return nil, fmt.Errorf("no token provider")
	}
	res := Client{tokens: tokens, params: DefaultParameters, timeout: time.Minute * 2, opt: opt}
	res.url = predictURL(opt, opt.Project)
	res.httpclient = &http.Client{Transport: newTransport()}
	goapp.Log.Info().Str("url", res.url).Msg("cfg: vertex")
	return &res, nil
}

// Generate returns the content of the first prediction
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(predictRequest{Instances: []instance{{Content: prompt}}, Parameters: c.params})
	if err != nil {
		return "", fmt.Errorf("can't marshal request: %w", err)
	}
	ctx, cancelF := context.WithTimeout(ctx, c.timeout)
	defer cancelF()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL(ctx), bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	defer goapp.Estimate("vertex predict")()
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("can't call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 500); err != nil {
		return "", fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
	}
	var res predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("can't unmarshal: %w", err)
	}
	if len(res.Predictions) == 0 {
		return "", fmt.Errorf("no predictions")
	}
	if strings.TrimSpace(res.Predictions[0].Content) == "" {
		return "", fmt.Errorf("empty prediction")
	}
	return res.Predictions[0].Content, nil
}

func (c *Client) predictURL(ctx context.Context) string {
	if c.opt.Projects == nil {
		return c.url
	}
	p, err := c.opt.Projects.Project(ctx)
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("can't get project, using configured")
		return c.url
	}
	if p == "" || p == c.opt.Project {
		return c.url
	}
	return predictURL(c.opt, p)
}

func predictURL(opt Options, project string) string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:predict",
		strings.TrimRight(opt.URL, "/"), url.PathEscape(project), url.PathEscape(opt.Location), url.PathEscape(opt.Model))
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxIdleConns = 10
	res.MaxIdleConnsPerHost = 5
	res.IdleConnTimeout = 90 * time.Second
	return res
}
