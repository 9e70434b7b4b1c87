package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"soapbatch/app/config"
	"soapbatch/app/service/state"

	_ "embed"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

//go:embed prompt_template.txt
var promptTemplate string

// FallbackReply is sent whenever the model's answer cannot be used.
const FallbackReply = "Sorry, I didn't understand that."

const maxInterpretDuration = 30 * time.Second

type Service struct {
	cfg    *config.Config
	client *openai.Client
}

func New(di *do.Injector) (*Service, error) {
	return newService(do.MustInvoke[*config.Config](di)), nil
}

func newService(cfg *config.Config) *Service {
	clientConfig := openai.DefaultConfig(cfg.OpenRouter.Token)
	clientConfig.BaseURL = cfg.OpenRouter.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: maxInterpretDuration,
	}

	return &Service{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Interpret turns a message into a sequence of actions given the
// conversation's current batch. It never fails: any transport or
// parse error degrades to a single unknown action with a fixed
// apology.
func (s *Service) Interpret(ctx context.Context, text string, current state.Batch) Result {
	result, err := s.callModel(ctx, text, current)
	if err != nil {
		slog.Error("Interpreter call failed", "error", err)

		return Result{
			Actions:  []Action{{Intent: IntentUnknown, Reply: FallbackReply}},
			Fallback: FallbackReply,
		}
	}

	return result
}

func (s *Service) callModel(ctx context.Context, text string, current state.Batch) (Result, error) {
	templateValues := map[string]any{
		"message": text,
		"batch":   formatBatchNumber(current),
		"weights": formatWeights(current),
	}

	prompt := promptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
	}

	ctx, cancel := context.WithTimeout(ctx, maxInterpretDuration)
	defer cancel()

	aiResponse, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.cfg.OpenRouter.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: s.cfg.OpenRouter.Temperature,
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return Result{}, fmt.Errorf("no chat completion found")
	}

	content := aiResponse.Choices[0].Message.Content
	content = strings.Trim(content, "`")
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSpace(content)

	slog.Debug("Model raw response", "content", content)

	return decodeResult(content)
}

func decodeResult(content string) (Result, error) {
	var raw struct {
		Actions []json.RawMessage `json:"actions"`
		Reply   string            `json:"reply"`
	}

	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	result := Result{
		Actions:  make([]Action, 0, len(raw.Actions)),
		Fallback: raw.Reply,
	}
	if result.Fallback == "" {
		result.Fallback = FallbackReply
	}

	for _, data := range raw.Actions {
		result.Actions = append(result.Actions, decodeAction(data))
	}

	return result, nil
}

// decodeAction validates a single action; anything that does not
// match a known tagged shape degrades to unknown instead of
// poisoning the batch state.
func decodeAction(data json.RawMessage) Action {
	unknown := Action{Intent: IntentUnknown, Reply: FallbackReply}

	var raw struct {
		Intent      string      `json:"intent"`
		BatchNumber string      `json:"batch_number"`
		Weight      json.Number `json:"weight"`
		Reply       string      `json:"reply"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("Dropping malformed action", "action", string(data), "error", err)
		return unknown
	}

	action := Action{
		Intent:      Intent(raw.Intent),
		BatchNumber: raw.BatchNumber,
		Reply:       raw.Reply,
	}
	if action.Reply == "" {
		action.Reply = "OK"
	}

	switch action.Intent {
	case IntentStartBatch:
		if action.BatchNumber == "" {
			return unknown
		}
	case IntentAddWeight:
		weight, err := raw.Weight.Float64()
		if err != nil {
			slog.Warn("Dropping action with non-numeric weight", "action", string(data), "error", err)
			return unknown
		}
		action.Weight = weight
	case IntentEndBatch:
	default:
		action.Intent = IntentUnknown
	}

	return action
}

func formatBatchNumber(current state.Batch) string {
	if !current.Open() {
		return "None"
	}

	return current.Number
}

func formatWeights(current state.Batch) string {
	parts := make([]string, 0, len(current.Weights))
	for _, w := range current.Weights {
		parts = append(parts, fmt.Sprint(w))
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
