package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aliuyar1234/formforge/internal/forms"
	"github.com/aliuyar1234/formforge/internal/usage"
	"github.com/rs/zerolog/log"
)

const (
	classifyTemperature = 0.1
	classifyMaxTokens   = 10

	generateTemperature = 0.7
	freePromptRunes     = 100
	freeMaxTokens       = 500
	paidMaxTokens       = 2000

	modifyTemperature = 0.3
	modifyMaxTokens   = 3000
)

// Completer is the chat-completion call the assistant needs.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (string, error)
}

// Assistant turns prompts into form schemas.
type Assistant struct {
	llm Completer
}

// NewAssistant creates an assistant backed by llm.
func NewAssistant(llm Completer) *Assistant {
	return &Assistant{llm: llm}
}

// IsFormRelated asks the model whether prompt is about building forms.
// Only an exact YES admits the prompt. An empty answer is a no, other
// provider failures count as a yes, and a missing API key is returned.
func (a *Assistant) IsFormRelated(ctx context.Context, prompt string) (bool, error) {
	answer, err := a.llm.Complete(ctx, []ChatMessage{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: classifierPrompt(prompt)},
	}, classifyTemperature, classifyMaxTokens)
	switch {
	case errors.Is(err, ErrNotConfigured):
		return false, err
	case errors.Is(err, ErrEmptyContent):
		return false, nil
	case err != nil:
		log.Warn().Err(err).Msg("Prompt classification failed, allowing request")
		return true, nil
	}

	return strings.ToUpper(strings.TrimSpace(answer)) == "YES", nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Generate builds a new schema from prompt. Free plans get a compact
// system prompt, a truncated user prompt and a smaller token budget.
func (a *Assistant) Generate(ctx context.Context, plan usage.Plan, prompt string) (*forms.Schema, error) {
	system := fullGeneratePrompt
	maxTokens := paidMaxTokens
	if !plan.IsPaid() {
		system = compactGeneratePrompt
		prompt = truncateRunes(prompt, freePromptRunes)
		maxTokens = freeMaxTokens
	}

	content, err := a.llm.Complete(ctx, []ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}, generateTemperature, maxTokens)
	if err != nil {
		return nil, err
	}

	return normalize(content, normalizeOptions{})
}

// Modify applies prompt to current and returns the complete new schema.
// Title and description fall back to current when the model drops them.
func (a *Assistant) Modify(ctx context.Context, current *forms.Schema, prompt string) (*forms.Schema, error) {
	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode current schema: %w", err)
	}

	content, err := a.llm.Complete(ctx, []ChatMessage{
		{Role: "system", Content: modifySystemPrompt(string(currentJSON))},
		{Role: "user", Content: prompt},
	}, modifyTemperature, modifyMaxTokens)
	if err != nil {
		return nil, err
	}

	return normalize(content, normalizeOptions{fallback: current, keepImage: true})
}
