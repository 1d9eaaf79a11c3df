package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// Options for the object store connection
type Options struct {
	URL    string
	User   string
	Key    string
	Region string
	Secure bool
}

// Error is returned when the store rejects an upload
type Error struct {
	Code int
	Body string
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage failed (%d): %s", e.Code, e.Body)
}

// Client uploads and deletes audio objects in an S3 compatible store
type Client struct {
	minio *minio.Client
}

// NewClient creates the object store client
func NewClient(opt Options) (*Client, error) {
	if opt.URL == "" {
		return nil, errors.New("no storage URL")
	}
	endpoint, secure, err := parseEndpoint(opt.URL, opt.Secure)
	if err != nil {
		return nil, err
	}
	region := opt.Region
	if region == "" {
		region = "us-east-1"
	}
	goapp.Log.Info().Str("url", endpoint).Bool("secure", secure).Str("user", opt.User).Msg("cfg: storage")
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opt.User, opt.Key, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("can't init minio client: %w", err)
	}
	return &Client{minio: mc}, nil
}

func parseEndpoint(s string, secure bool) (string, bool, error) {
	if !strings.Contains(s, "://") {
		return s, secure, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false, fmt.Errorf("can't parse storage URL: %w", err)
	}
	return u.Host, u.Scheme == "https", nil
}

// Upload stores data as a single object. Only a successful response is accepted,
// there are no retries.
func (c *Client) Upload(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	goapp.Log.Info().Str("bucket", bucket).Str("name", name).Int("size", len(data)).Msg("upload")
	_, err := c.minio.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType, DisableMultipart: true})
	if err != nil {
		er := minio.ToErrorResponse(err)
		if er.StatusCode == 0 {
			return &Error{Code: 0, Body: err.Error()}
		}
		return &Error{Code: er.StatusCode, Body: er.Message}
	}
	return nil
}

// Delete removes the object. Missing objects count as deleted. Any other failure
// is only logged.
func (c *Client) Delete(ctx context.Context, bucket, name string) {
	err := c.minio.RemoveObject(ctx, bucket, name, minio.RemoveObjectOptions{})
	if err == nil {
		goapp.Log.Info().Str("bucket", bucket).Str("name", name).Msg("deleted")
		return
	}
	if isNotFound(err) {
		goapp.Log.Info().Str("bucket", bucket).Str("name", name).Msg("not found for deletion, already deleted?")
		return
	}
	metrics.StorageDeleteFailures.Inc()
	goapp.Log.Warn().Err(err).Str("bucket", bucket).Str("name", name).Msg("can't delete")
}

func isNotFound(err error) bool {
	var errTest minio.ErrorResponse
	return errors.As(err, &errTest) && (errTest.StatusCode == http.StatusNotFound || errTest.Code == "NoSuchKey")
}
