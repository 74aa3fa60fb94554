package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/slatehq/slate/internal/models"
)

// OpenAI implements Generator over the OpenAI chat-completion API.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAI creates a client. baseURL may be empty for the default API
// endpoint; model defaults to gpt-4o-mini.
func NewOpenAI(apiKey, model, baseURL string, logger *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: api key is empty")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	logger.Info("ai: client initialized", slog.String("model", model))
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}, nil
}

// complete runs one chat completion and returns the reply text.
func (o *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai: completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateAtomicNotes implements Generator.
func (o *OpenAI) GenerateAtomicNotes(ctx context.Context, sourceText string) ([]models.Candidate, error) {
	reply, err := o.complete(ctx, atomicNotesPrompt, sourceText)
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &raw); err != nil {
		return nil, fmt.Errorf("ai: malformed atomic notes response: %w", err)
	}
	var out []models.Candidate
	for _, r := range raw {
		c := strings.TrimSpace(r.Content)
		if c != "" {
			out = append(out, models.Candidate{Content: c})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ai: atomic notes response was empty")
	}
	return out, nil
}

// GenerateHubNoteContent implements Generator.
func (o *OpenAI) GenerateHubNoteContent(ctx context.Context, noteContents []string) (models.HubContent, error) {
	reply, err := o.complete(ctx, hubContentPrompt, joinNotes(noteContents))
	if err != nil {
		return models.HubContent{}, err
	}
	var hc models.HubContent
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &hc); err != nil {
		return models.HubContent{}, fmt.Errorf("ai: malformed hub content response: %w", err)
	}
	if hc.Title == "" {
		return models.HubContent{}, fmt.Errorf("ai: hub content response missing title")
	}
	return hc, nil
}

// GenerateStructureNoteTitle implements Generator.
func (o *OpenAI) GenerateStructureNoteTitle(ctx context.Context, noteContents []string) (string, error) {
	reply, err := o.complete(ctx, structureTitlePrompt, joinNotes(noteContents))
	if err != nil {
		return "", err
	}
	var out struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &out); err != nil {
		return "", fmt.Errorf("ai: malformed structure title response: %w", err)
	}
	if out.Title == "" {
		return "", fmt.Errorf("ai: structure title response missing title")
	}
	return out.Title, nil
}

// GenerateTermDefinition implements Generator.
func (o *OpenAI) GenerateTermDefinition(ctx context.Context, term, termContext string) (*models.Definition, error) {
	user := term
	if termContext != "" {
		user = fmt.Sprintf("Term: %s\n\nContext:\n%s", term, termContext)
	}
	reply, err := o.complete(ctx, termDefinitionPrompt, user)
	if err != nil {
		return nil, err
	}
	body := stripCodeFence(reply)
	if body == "null" {
		return nil, nil
	}
	var def models.Definition
	if err := json.Unmarshal([]byte(body), &def); err != nil {
		return nil, fmt.Errorf("ai: malformed definition response: %w", err)
	}
	if def.Content == "" {
		return nil, nil
	}
	return &def, nil
}

// AnswerQuestion implements Generator.
func (o *OpenAI) AnswerQuestion(ctx context.Context, question string, notes []QANote) (string, error) {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nNotes:\n")
	for _, n := range notes {
		fmt.Fprintf(&b, "AN-%d: %s\n", n.GlobalNumber, n.Content)
	}
	reply, err := o.complete(ctx, answerQuestionPrompt, b.String())
	if err != nil {
		return "", err
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &out); err != nil {
		return "", fmt.Errorf("ai: malformed answer response: %w", err)
	}
	return out.Answer, nil
}

// AnalyzeForHubs implements Generator.
func (o *OpenAI) AnalyzeForHubs(ctx context.Context, notes []QANote, hubs []HubSummary) (*models.HubAnalysis, error) {
	payload, err := json.Marshal(map[string]any{
		"atomic_notes":  notes,
		"existing_hubs": hubs,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: marshal analysis input: %w", err)
	}
	reply, err := o.complete(ctx, hubAnalysisPrompt, string(payload))
	if err != nil {
		return nil, err
	}
	var analysis models.HubAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &analysis); err != nil {
		return nil, fmt.Errorf("ai: malformed analysis response: %w", err)
	}
	return &analysis, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// emit despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func joinNotes(contents []string) string {
	var b strings.Builder
	for i, c := range contents {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return b.String()
}
