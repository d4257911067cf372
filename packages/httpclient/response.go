package httpclient

import (
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// Response wraps a completed HTTP exchange. The JSON body is parsed
// lazily on first access and memoized for the lifetime of the Response,
// so repeated path lookups never re-parse.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration

	parseOnce sync.Once
	parsed    gjson.Result
	parseOK   bool
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSON returns the parsed body and whether parsing succeeded. The body
// is parsed at most once per Response, even under concurrent first
// access; callers always observe the same result.
func (r *Response) JSON() (gjson.Result, bool) {
	r.parseOnce.Do(func() {
		if gjson.ValidBytes(r.Body) {
			r.parsed = gjson.ParseBytes(r.Body)
			r.parseOK = true
		}
	})
	return r.parsed, r.parseOK
}

// Header looks up a header value by case-insensitive name.
func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
