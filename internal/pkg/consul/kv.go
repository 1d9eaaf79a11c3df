package consul

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/hashicorp/consul/api"
)

// KV keeps properties in the consul key-value store under a prefix
type KV struct {
	kv      *api.KV
	prefix  string
	timeout time.Duration
}

// NewKV creates consul backed properties store
func NewKV(cfg *api.Config, prefix string) (*KV, error) {
	c, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return nil, fmt.Errorf("no prefix")
	}
	return newKV(c, prefix), nil
}

func newKV(c *api.Client, prefix string) *KV {
	goapp.Log.Info().Str("prefix", prefix).Msg("cfg: consul kv")
	return &KV{kv: c.KV(), prefix: prefix + "/", timeout: time.Second * 5}
}

// Get loads property value
func (c *KV) Get(ctx context.Context, key string) (string, error) {
	ctx, cf := context.WithTimeout(ctx, c.timeout)
	defer cf()
	p, _, err := c.kv.Get(c.prefix+key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("can't invoke consul: %w", err)
	}
	if p == nil {
		return "", properties.ErrNotFound
	}
	return string(p.Value), nil
}

// Set writes property value
func (c *KV) Set(ctx context.Context, key, value string) error {
	ctx, cf := context.WithTimeout(ctx, c.timeout)
	defer cf()
	if _, err := c.kv.Put(&api.KVPair{Key: c.prefix + key, Value: []byte(value)}, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("can't invoke consul: %w", err)
	}
	return nil
}

// List returns keys without the prefix
func (c *KV) List(ctx context.Context) ([]string, error) {
	ctx, cf := context.WithTimeout(ctx, c.timeout)
	defer cf()
	keys, _, err := c.kv.Keys(c.prefix, "", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("can't invoke consul: %w", err)
	}
	res := make([]string, 0, len(keys))
	for _, k := range keys {
		if s := strings.TrimPrefix(k, c.prefix); s != "" {
			res = append(res, s)
		}
	}
	sort.Strings(res)
	return res, nil
}

// Delete removes property
func (c *KV) Delete(ctx context.Context, key string) error {
	ctx, cf := context.WithTimeout(ctx, c.timeout)
	defer cf()
	if _, err := c.kv.Delete(c.prefix+key, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("can't invoke consul: %w", err)
	}
	return nil
}
