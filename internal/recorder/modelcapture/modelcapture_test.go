package modelcapture

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFromValues(t *testing.T) {
	t.Run("flattens single values", func(t *testing.T) {
		values, err := url.ParseQuery("foo=bar&baz=69")
		require.NoError(t, err)

		query := QueryFromValues(values)

		assert.Equal(t, map[string]string{"foo": "bar", "baz": "69"}, query)
	})

	t.Run("last occurrence wins for repeated keys", func(t *testing.T) {
		values, err := url.ParseQuery("foo=first&foo=second&foo=third")
		require.NoError(t, err)

		query := QueryFromValues(values)

		assert.Equal(t, map[string]string{"foo": "third"}, query)
	})

	t.Run("empty query yields empty map", func(t *testing.T) {
		query := QueryFromValues(url.Values{})

		assert.NotNil(t, query)
		assert.Empty(t, query)
	})
}

func TestNewCaptureRecord(t *testing.T) {
	t.Run("captures method path and query", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/hooks/github?ref=main", nil)
		r.Header.Set("Content-Type", "application/json")

		rec := NewCaptureRecord(r, []byte(`{"ok":true}`), false)

		assert.NotEmpty(t, rec.CaptureID)
		assert.Equal(t, "POST", rec.Method)
		assert.Equal(t, "/hooks/github", rec.Path)
		assert.Equal(t, map[string]string{"ref": "main"}, rec.Query)
		assert.Equal(t, "application/json", rec.Headers["Content-Type"])
		assert.Equal(t, `{"ok":true}`, rec.Body)
		assert.False(t, rec.BodyTruncated)
		assert.False(t, rec.ReceivedAt.IsZero())
	})

	t.Run("records truncation flag", func(t *testing.T) {
		r := httptest.NewRequest("PUT", "/", nil)

		rec := NewCaptureRecord(r, []byte("partial"), true)

		assert.True(t, rec.BodyTruncated)
	})

	t.Run("assigns unique identifiers", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)

		first := NewCaptureRecord(r, nil, false)
		second := NewCaptureRecord(r, nil, false)

		assert.NotEqual(t, first.CaptureID, second.CaptureID)
	})
}
