package consul

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/airenas/medscribe/internal/pkg/test"
	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testReq struct {
	method, path, query, body string
}

func initTestServer(t *testing.T, code int, resp string) (*KV, *[]testReq) {
	t.Helper()
	reqs := make([]testReq, 0)
	lock := &sync.Mutex{}
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		lock.Lock()
		defer lock.Unlock()
		b, _ := io.ReadAll(req.Body)
		reqs = append(reqs, testReq{method: req.Method, path: req.URL.Path, query: req.URL.RawQuery, body: string(b)})
		rw.Header().Set("X-Consul-Index", "1")
		rw.Header().Set("X-Consul-LastContact", "0")
		rw.Header().Set("X-Consul-KnownLeader", "true")
		rw.WriteHeader(code)
		_, _ = rw.Write([]byte(resp))
	}))
	t.Cleanup(func() { server.Close() })
	res, err := NewKV(&api.Config{Address: strings.TrimPrefix(server.URL, "http://")}, "/medscribe/")
	require.Nil(t, err)
	return res, &reqs
}

func TestNewKV(t *testing.T) {
	_, err := NewKV(&api.Config{Address: "localhost:8500"}, "")
	assert.NotNil(t, err)
	_, err = NewKV(&api.Config{Address: "localhost:8500"}, "/")
	assert.NotNil(t, err)
}

func TestGet(t *testing.T) {
	kv, reqs := initTestServer(t, http.StatusOK, `[{"Key":"medscribe/CUSTOM_TEMPLATES","Value":"eyJhIjoiYiJ9"}]`)

	v, err := kv.Get(test.Ctx(t), properties.TemplatesKey)

	require.Nil(t, err)
	assert.Equal(t, `{"a":"b"}`, v)
	require.Equal(t, 1, len(*reqs))
	assert.Equal(t, "/v1/kv/medscribe/CUSTOM_TEMPLATES", (*reqs)[0].path)
}

func TestGet_NotFound(t *testing.T) {
	kv, _ := initTestServer(t, http.StatusNotFound, ``)
	_, err := kv.Get(test.Ctx(t), "a")
	assert.True(t, errors.Is(err, properties.ErrNotFound))
}

func TestGet_Fail(t *testing.T) {
	kv, _ := initTestServer(t, http.StatusInternalServerError, `olia`)
	_, err := kv.Get(test.Ctx(t), "a")
	assert.NotNil(t, err)
	assert.False(t, errors.Is(err, properties.ErrNotFound))
}

func TestSet(t *testing.T) {
	kv, reqs := initTestServer(t, http.StatusOK, `true`)

	err := kv.Set(test.Ctx(t), "a", `{"a":"b"}`)

	require.Nil(t, err)
	require.Equal(t, 1, len(*reqs))
	assert.Equal(t, http.MethodPut, (*reqs)[0].method)
	assert.Equal(t, "/v1/kv/medscribe/a", (*reqs)[0].path)
	assert.Equal(t, `{"a":"b"}`, (*reqs)[0].body)
}

func TestSet_Fail(t *testing.T) {
	kv, _ := initTestServer(t, http.StatusForbidden, `no`)
	assert.NotNil(t, kv.Set(test.Ctx(t), "a", "b"))
}

func TestList(t *testing.T) {
	kv, reqs := initTestServer(t, http.StatusOK, `["medscribe/b","medscribe/a","medscribe/"]`)

	keys, err := kv.List(test.Ctx(t))

	require.Nil(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, "/v1/kv/medscribe/", (*reqs)[0].path)
	assert.Contains(t, (*reqs)[0].query, "keys")
}

func TestDelete(t *testing.T) {
	kv, reqs := initTestServer(t, http.StatusOK, `true`)

	require.Nil(t, kv.Delete(test.Ctx(t), "a"))

	assert.Equal(t, http.MethodDelete, (*reqs)[0].method)
	assert.Equal(t, "/v1/kv/medscribe/a", (*reqs)[0].path)
}
