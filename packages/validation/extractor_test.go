package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_AsString(t *testing.T) {
	resp := jsonResponse(200, `{"id": 1}`)
	assert.Equal(t, `{"id": 1}`, Extract(resp).AsString())
}

func TestExtract_AsJSON(t *testing.T) {
	resp := jsonResponse(200, `{"user": {"name": "Ada"}}`)

	doc, err := Extract(resp).AsJSON()
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc.Get("user.name").String())
}

func TestExtract_AsJSON_InvalidBody(t *testing.T) {
	resp := jsonResponse(200, `not json`)

	_, err := Extract(resp).AsJSON()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestExtract_Path(t *testing.T) {
	resp := jsonResponse(200, `{"user": {"id": 123}, "tags": ["x", "y"]}`)
	ex := Extract(resp)

	assert.Equal(t, int64(123), ex.Path("user/id").Int())
	assert.Equal(t, "y", ex.Path("tags/1").String())

	// Missing paths come back as the zero value, never an error.
	assert.False(t, ex.Path("user/missing").Exists())
	assert.False(t, ex.Path("tags/9").Exists())
}

func TestExtract_Path_NonJSONBody(t *testing.T) {
	resp := jsonResponse(200, `<html>`)

	assert.False(t, Extract(resp).Path("anything").Exists())
}

func TestExtract_PathOr(t *testing.T) {
	resp := jsonResponse(200, `{"count": 0, "name": "Ada"}`)
	ex := Extract(resp)

	assert.Equal(t, "Ada", ex.PathOr("name", "fallback"))
	assert.Equal(t, "fallback", ex.PathOr("missing", "fallback"))

	// A present falsy value wins over the default.
	assert.Equal(t, float64(0), ex.PathOr("count", 42))
}
