package sentiment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sentiment-lens/internal/domain"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatClient struct {
	calls    int
	response string
	err      error
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.response}},
		},
	}, nil
}

func TestNewOpenAIModelRequiresKey(t *testing.T) {
	assert.Nil(t, NewOpenAIModel("  ", "", nil))
}

func TestOpenAIModelPrepareAndScore(t *testing.T) {
	client := &fakeChatClient{response: "```json\n[{\"id\":0,\"polarity\":0.9,\"subjectivity\":0.4},{\"id\":1,\"polarity\":-2,\"subjectivity\":0.5},{\"id\":7,\"polarity\":1}]\n```"}
	m := newOpenAIModel(client, "test-model", constModel{Polarity: 0.1})

	run, err := m.Prepare(context.Background(), []string{"first", "second", "first", " "})
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)

	assert.Equal(t, Score{Polarity: 0.9, Subjectivity: 0.4}, run.Score("first"))
	assert.Equal(t, Score{Polarity: -1, Subjectivity: 0.5}, run.Score("second"))
	assert.Equal(t, Score{Polarity: 0.1}, run.Score("never sent"))

	assert.Equal(t, Score{Polarity: 0.1}, m.Score("first"), "scores stay with the run")
}

func TestOpenAIModelBatches(t *testing.T) {
	client := &fakeChatClient{response: "[]"}
	m := newOpenAIModel(client, "test-model", nil)
	m.batchSize = 2

	texts := []string{"a", "b", "c", "d", "e"}
	_, err := m.Prepare(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestOpenAIModelFallsBackOnError(t *testing.T) {
	client := &fakeChatClient{err: errors.New("rate limited")}
	m := newOpenAIModel(client, "test-model", nil)

	run, err := m.Prepare(context.Background(), []string{"BTC to the moon"})
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Greater(t, run.Score("BTC to the moon").Polarity, 0.0)
}

func TestOpenAIModelRejectsBadJSON(t *testing.T) {
	client := &fakeChatClient{response: "sure! here are the scores"}
	m := newOpenAIModel(client, "test-model", nil)
	_, err := m.Prepare(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse scorer json"))
}

func TestScorerRunsDoNotShareLLMScores(t *testing.T) {
	client := &fakeChatClient{err: errors.New("unavailable")}
	s := NewScorer(newOpenAIModel(client, "test-model", constModel{Polarity: 0.1}))
	events := []domain.TextEvent{{Symbol: "BTC", Text: "X"}}

	first := s.ScoreContext(context.Background(), events)
	require.Len(t, first, 1)
	assert.Equal(t, 0.1, first[0].Polarity)

	client.err = nil
	client.response = `[{"id":0,"polarity":0.8,"subjectivity":0.3}]`
	second := s.ScoreContext(context.Background(), events)
	require.Len(t, second, 1)
	assert.Equal(t, 0.8, second[0].Polarity)

	// a later offline run falls back again instead of reusing the earlier LLM score
	client.err = errors.New("unavailable")
	third := s.ScoreContext(context.Background(), events)
	assert.Equal(t, 0.1, third[0].Polarity)
	assert.Equal(t, 0.1, s.Score(events)[0].Polarity)
}
