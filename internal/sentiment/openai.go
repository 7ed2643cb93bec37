package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIBatch = 24

type chatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIModel scores texts with a chat model. It holds no scores itself:
// Prepare returns a model scoped to one run. Outside a run, and for texts the
// chat model never scored, the wrapped offline model is used.
type OpenAIModel struct {
	client    chatClient
	model     string
	fallback  Model
	batchSize int
}

// NewOpenAIModel returns nil when apiKey is empty.
func NewOpenAIModel(apiKey, model string, fallback Model) *OpenAIModel {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return newOpenAIModel(&openAIClient{client: client}, model, fallback)
}

func newOpenAIModel(client chatClient, model string, fallback Model) *OpenAIModel {
	if fallback == nil {
		fallback = DefaultLexicon()
	}
	return &OpenAIModel{
		client:    client,
		model:     model,
		fallback:  fallback,
		batchSize: defaultOpenAIBatch,
	}
}

func (m *OpenAIModel) Score(text string) Score {
	return m.fallback.Score(text)
}

// Prepare scores the distinct texts of one run in batches and returns a
// model that answers from those scores. A failed batch leaves its texts on
// the fallback; the first error is returned with the partial model after the
// remaining batches have been tried.
func (m *OpenAIModel) Prepare(ctx context.Context, texts []string) (Model, error) {
	run := &runModel{scores: make(map[string]Score, len(texts)), fallback: m.fallback}
	pending := distinct(texts)
	var firstErr error
	for start := 0; start < len(pending); start += m.batchSize {
		end := min(start+m.batchSize, len(pending))
		if err := m.scoreBatch(ctx, pending[start:end], run.scores); err != nil && firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			return run, ctx.Err()
		}
	}
	return run, firstErr
}

// runModel is read-only once Prepare returns.
type runModel struct {
	scores   map[string]Score
	fallback Model
}

func (r *runModel) Score(text string) Score {
	if sc, ok := r.scores[text]; ok {
		return sc
	}
	return r.fallback.Score(text)
}

func distinct(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (m *OpenAIModel) scoreBatch(ctx context.Context, texts []string, into map[string]Score) error {
	var sb strings.Builder
	for i, t := range texts {
		sb.WriteString(fmt.Sprintf("id=%d\n", i))
		sb.WriteString(fmt.Sprintf("text=%s\n\n", strings.Join(strings.Fields(t), " ")))
	}

	systemPrompt := "You score the sentiment of forum posts. Return ONLY a JSON array. Each object requires: id (int), polarity (-1..1), subjectivity (0..1). No markdown."
	completion, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: m.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Items:\n" + sb.String()),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return err
	}
	if len(completion.Choices) == 0 {
		return fmt.Errorf("empty scorer completion")
	}

	var parsed []struct {
		ID           int     `json:"id"`
		Polarity     float64 `json:"polarity"`
		Subjectivity float64 `json:"subjectivity"`
	}
	raw := trimCodeFence(completion.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("parse scorer json: %w", err)
	}

	for _, row := range parsed {
		if row.ID < 0 || row.ID >= len(texts) {
			continue
		}
		into[texts[row.ID]] = Score{Polarity: row.Polarity, Subjectivity: row.Subjectivity}.clamped()
	}
	return nil
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
