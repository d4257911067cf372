package httpclient

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_JSONMemoized(t *testing.T) {
	resp := &Response{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(`{"user": {"id": 123}}`),
	}

	first, ok := resp.JSON()
	require.True(t, ok)
	second, ok := resp.JSON()
	require.True(t, ok)

	// Same parsed value across consecutive lookups on one instance.
	assert.Equal(t, first.Value(), second.Value())
	assert.Equal(t, int64(123), first.Get("user.id").Int())
}

func TestResponse_JSONConcurrentFirstAccess(t *testing.T) {
	resp := &Response{Body: []byte(`{"n": 1}`)}

	var wg sync.WaitGroup
	results := make([]any, 16)
	oks := make([]bool, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			parsed, ok := resp.JSON()
			results[i], oks[i] = parsed.Value(), ok
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		require.True(t, oks[i])
		assert.Equal(t, results[0], r)
	}
}

func TestResponse_JSONInvalidBody(t *testing.T) {
	resp := &Response{Body: []byte("<html>not json</html>")}

	_, ok := resp.JSON()
	assert.False(t, ok)

	// Marker is stable on repeated access.
	_, ok = resp.JSON()
	assert.False(t, ok)
}

func TestResponse_HeaderCaseInsensitive(t *testing.T) {
	resp := &Response{Headers: map[string]string{"Content-Type": "application/json; charset=utf-8"}}

	assert.Equal(t, "application/json; charset=utf-8", resp.Header("content-type"))
	assert.Equal(t, "application/json; charset=utf-8", resp.Header("CONTENT-TYPE"))
	assert.Empty(t, resp.Header("X-Missing"))
}

func TestResponse_Predicates(t *testing.T) {
	resp := &Response{
		StatusCode: 204,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
	assert.True(t, resp.IsSuccess())
	assert.True(t, resp.IsJSON())

	resp = &Response{StatusCode: 500, Headers: map[string]string{"Content-Type": "text/html"}}
	assert.False(t, resp.IsSuccess())
	assert.False(t, resp.IsJSON())
}
