package service

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"journey_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

func TestGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(chatResponse("hello")))
	}))
	defer srv.Close()

	s := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model", TimeoutSecs: 5})
	text, err := s.GenerateText("", "say hello", 0.5, 0)

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestGenerateTextRetriesOnTimeout(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(1500 * time.Millisecond)
		}
		w.Write([]byte(chatResponse("second try")))
	}))
	defer srv.Close()

	s := NewAIService(config.AIConfig{BaseURL: srv.URL, Model: "test-model", TimeoutSecs: 1})
	text, err := s.GenerateText("", "prompt", 0.5, 0)

	require.NoError(t, err)
	assert.Equal(t, "second try", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	s := NewAIService(config.AIConfig{BaseURL: srv.URL, Model: "test-model", TimeoutSecs: 5})
	_, err := s.GenerateText("", "prompt", 0.5, 0)

	assert.ErrorContains(t, err, "429")
}

func TestGenerateJSONStripsCodeFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("```json\n{\"name\": \"go\"}\n```")))
	}))
	defer srv.Close()

	s := NewAIService(config.AIConfig{BaseURL: srv.URL, Model: "test-model", TimeoutSecs: 5})
	var out struct {
		Name string `json:"name"`
	}
	err := s.GenerateJSON("", "prompt", 0.5, 0, &out)

	require.NoError(t, err)
	assert.Equal(t, "go", out.Name)
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"Here is the result: {\"a\":1} hope it helps", `{"a":1}`},
		{"some text [\"x\"] trailing", `["x"]`},
		{`{"a":1}`, `{"a":1}`},
		{"no json here", "no json here"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractJSON(tc.in), "input: %s", tc.in)
	}
}
