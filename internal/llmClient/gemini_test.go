package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, body string, status int, seen *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if seen != nil {
			seen.Store(string(raw))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
	return string(b)
}

func TestGeminiGenerateJSONSendsSchema(t *testing.T) {
	var seen atomic.Value
	srv := geminiServer(t, candidateBody(`{"ok":true}`), http.StatusOK, &seen)

	cli, err := NewGeminiClient(context.Background(), "test-key", "", GeminiOptions{BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "Gemini:"+DefaultGeminiModel, cli.Name())

	schema := &Schema{
		Type:       TypeObject,
		Properties: map[string]*Schema{"ok": {Type: TypeBoolean}},
		Required:   []string{"ok"},
	}
	raw, err := cli.GenerateJSON(context.Background(), "say ok", schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	req, _ := seen.Load().(string)
	assert.Contains(t, req, "say ok")
	assert.Contains(t, req, "responseSchema")
	assert.Contains(t, req, "application/json")
}

func TestGeminiEmptyCandidateIsEmptyResponse(t *testing.T) {
	srv := geminiServer(t, `{"candidates":[]}`, http.StatusOK, nil)
	cli, err := NewGeminiClient(context.Background(), "k", "m", GeminiOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = cli.GenerateJSON(context.Background(), "p", nil)
	assert.True(t, errors.Is(err, ErrEmptyResponse), "got %v", err)
}

func TestGeminiProviderErrorPropagates(t *testing.T) {
	srv := geminiServer(t, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`, http.StatusForbidden, nil)
	cli, err := NewGeminiClient(context.Background(), "bad", "m", GeminiOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = cli.GenerateJSON(context.Background(), "p", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyResponse))
	assert.True(t, strings.Contains(err.Error(), "API key not valid"), "got %v", err)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "  ", "m", GeminiOptions{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSchemaToGenAI(t *testing.T) {
	s := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"a": {Type: TypeString},
			"b": {Type: TypeArray, Items: &Schema{Type: TypeString}},
		},
		Required: []string{"a", "b"},
	}
	g := s.toGenAI()
	require.NotNil(t, g)
	assert.EqualValues(t, "OBJECT", g.Type)
	assert.EqualValues(t, "ARRAY", g.Properties["b"].Type)
	assert.EqualValues(t, "STRING", g.Properties["b"].Items.Type)
	assert.Equal(t, []string{"a", "b"}, g.Required)
	assert.Nil(t, (*Schema)(nil).toGenAI())
}

func TestFakeClientEchoesFencedCode(t *testing.T) {
	raw, err := NewFakeClient().GenerateJSON(context.Background(), "intro\n```\nx := 1\n```\noutro", nil)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "x := 1", got["improvedCode"])
}

func TestFactoryFor(t *testing.T) {
	f, err := FactoryFor(ProviderConfig{Provider: "FAKE"})
	require.NoError(t, err)
	cli, err := f(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "FakeLLM", cli.Name())

	_, err = FactoryFor(ProviderConfig{Provider: "nope"})
	assert.Error(t, err)
}
