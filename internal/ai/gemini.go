package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// Generator sends one prompt to a language model and returns its text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a Gemini API backed Generator.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &genaiGenerator{client: client, model: model}, nil
}

func (g *genaiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := cleanModelText(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return text, nil
}

// GeminiAdvisor delegates every answer to a Generator.
type GeminiAdvisor struct {
	gen Generator
}

func NewGeminiAdvisor(gen Generator) *GeminiAdvisor {
	return &GeminiAdvisor{gen: gen}
}

func (a *GeminiAdvisor) Categorize(ctx context.Context, description string, amount decimal.Decimal) (string, error) {
	prompt := fmt.Sprintf(categorizePrompt, strings.Join(core.Categories, ", "), description, amount.StringFixed(2))
	text, err := a.gen.Generate(ctx, "", prompt)
	if err != nil {
		return "", fmt.Errorf("categorize: %w", err)
	}
	// First line only; models sometimes explain themselves.
	first, _, _ := strings.Cut(text, "\n")
	return core.NormalizeCategory(first), nil
}

func (a *GeminiAdvisor) Insights(ctx context.Context, currency string, report core.Report) (string, error) {
	data, err := json.Marshal(struct {
		Currency   string               `json:"currency"`
		Summary    core.ReportSummary   `json:"summary"`
		Categories []core.CategoryTotal `json:"categories"`
		Goals      []core.GoalProgress  `json:"goals"`
		Budgets    []core.BudgetUsage   `json:"budgets"`
	}{currency, report.Summary, report.Categories, report.Goals, report.Budgets})
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	text, err := a.gen.Generate(ctx, advisorSystemPrompt, fmt.Sprintf(insightsPrompt, data))
	if err != nil {
		return "", fmt.Errorf("insights: %w", err)
	}
	return text, nil
}

func (a *GeminiAdvisor) Chat(ctx context.Context, query string, data any) (string, error) {
	prompt := query
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("marshal chat context: %w", err)
		}
		prompt = fmt.Sprintf(chatPrompt, b, query)
	}

	text, err := a.gen.Generate(ctx, advisorSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return text, nil
}

// cleanModelText strips Markdown code fences the model may wrap output in.
func cleanModelText(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return strings.TrimSpace(strings.Trim(s, "`"))
		}
		s = s[idx+1:]
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
