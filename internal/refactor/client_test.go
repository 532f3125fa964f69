package refactor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmclient "codecraft/internal/llmClient"
)

// stubModel is a scripted llmclient.LLMClient that counts calls.
type stubModel struct {
	raw     string
	err     error
	calls   int
	prompts []string
	schemas []*llmclient.Schema
}

func (s *stubModel) Name() string { return "stub" }
func (s *stubModel) Close() error { return nil }
func (s *stubModel) GenerateJSON(_ context.Context, prompt string, schema *llmclient.Schema) (json.RawMessage, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.schemas = append(s.schemas, schema)
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.raw), nil
}

type countingFactory struct {
	model *stubModel
	calls int
	err   error
}

func (f *countingFactory) build(_ context.Context, _ string) (llmclient.LLMClient, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

var goodRequest = Request{Code: "var a = 1", Language: "JavaScript", Focus: FocusReadability}

func TestRefactorMissingCredentialMakesNoCalls(t *testing.T) {
	f := &countingFactory{model: &stubModel{raw: `{}`}}
	c := NewClient("", f.build, nil)

	_, err := c.Refactor(context.Background(), goodRequest)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, f.calls)
	assert.Zero(t, f.model.calls)
}

func TestRefactorSuccess(t *testing.T) {
	model := &stubModel{raw: `{"improvedCode":"x","explanation":"y","keyChanges":["a","b"]}`}
	f := &countingFactory{model: model}
	c := NewClient("key", f.build, nil)

	res, err := c.Refactor(context.Background(), goodRequest)
	require.NoError(t, err)
	assert.Equal(t, Result{ImprovedCode: "x", Explanation: "y", KeyChanges: []string{"a", "b"}}, res)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], goodRequest.Code)
	require.NotNil(t, model.schemas[0])
	assert.Len(t, model.schemas[0].Required, 3)

	_, err = c.Refactor(context.Background(), goodRequest)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls, "model client is built once")
	assert.Equal(t, 2, model.calls)
}

func TestRefactorEmptyResponse(t *testing.T) {
	for name, model := range map[string]*stubModel{
		"blank text":     {raw: "  "},
		"provider empty": {err: llmclient.ErrEmptyResponse},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewClient("key", (&countingFactory{model: model}).build, nil)
			_, err := c.Refactor(context.Background(), goodRequest)
			assert.ErrorIs(t, err, ErrNoResponse)
			assert.False(t, errors.Is(err, ErrParseResponse))
		})
	}
}

func TestRefactorParseFailure(t *testing.T) {
	model := &stubModel{raw: "this is not json"}
	c := NewClient("key", (&countingFactory{model: model}).build, nil)
	_, err := c.Refactor(context.Background(), goodRequest)
	assert.ErrorIs(t, err, ErrParseResponse)
	assert.Equal(t, 1, model.calls, "no retry")
}

func TestRefactorProviderErrorPropagates(t *testing.T) {
	boom := errors.New("Error 429, Message: quota exceeded")
	model := &stubModel{err: boom}
	c := NewClient("key", (&countingFactory{model: model}).build, nil)
	_, err := c.Refactor(context.Background(), goodRequest)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, model.calls)
}

func TestRefactorInvalidRequestMakesNoCalls(t *testing.T) {
	f := &countingFactory{model: &stubModel{}}
	c := NewClient("key", f.build, nil)
	_, err := c.Refactor(context.Background(), Request{Code: " ", Language: "Go", Focus: FocusSecurity})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, f.calls)
}

func TestRefactorFactoryErrors(t *testing.T) {
	f := &countingFactory{err: llmclient.ErrMissingAPIKey}
	c := NewClient("key", f.build, nil)
	_, err := c.Refactor(context.Background(), goodRequest)
	assert.ErrorIs(t, err, ErrMissingCredential)

	c = NewClient("key", nil, nil)
	_, err = c.Refactor(context.Background(), goodRequest)
	assert.Error(t, err)
	assert.NoError(t, c.Close())
}

func TestRefactorWithFakeModel(t *testing.T) {
	c := NewClient("unused", llmclient.FakeFactory(), nil)
	res, err := c.Refactor(context.Background(), goodRequest)
	require.NoError(t, err)
	assert.Equal(t, goodRequest.Code, res.ImprovedCode)
	assert.NoError(t, c.Close())
}
