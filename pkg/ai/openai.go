package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI reviewer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIReviewer implements Reviewer against the OpenAI chat completion API.
type OpenAIReviewer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIReviewer builds a new reviewer using the provided configuration.
func NewOpenAIReviewer(cfg OpenAIConfig) (*OpenAIReviewer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	client := openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey))

	return &OpenAIReviewer{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("pkg.ai.openai"),
		logger: logger,
	}, nil
}

// Review sends the draft request to OpenAI and parses the response.
func (r *OpenAIReviewer) Review(parent context.Context, input ReviewInput) (Review, error) {
	ctx, span := r.tracer.Start(parent, "openai.review", trace.WithAttributes(
		attribute.String("model", r.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: reviewerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildReviewPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := r.client.CreateChatCompletion(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Review{}, fmt.Errorf("openai review: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Review{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	review, err := parseReviewResponse(content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Review{}, err
	}

	review.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	r.logger.Debug().Str("model", r.cfg.Model).Msg("feedback draft produced")
	return review, nil
}

func reviewerSystemPrompt() string {
	return "You are an assistant for essay graders. Given the grading summary of a student essay, respond with a JSON object c" +
		"ontaining feedback (a short paragraph in Brazilian Portuguese addressed to the student), strengths (array of strings)" +
		", and issues (array of strings). Be specific and encouraging; never invent scores."
}

func buildReviewPrompt(input ReviewInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Essay\n")
	builder.WriteString(input.Theme)
	builder.WriteString("\n\n## Format\n")
	builder.WriteString(input.Kind)
	builder.WriteString(fmt.Sprintf("\n\n## Scores\nraw: %.2f\nscaled: %.2f\n", input.RawScore, input.ScaledScore))
	if len(input.AnnotationNotes) > 0 {
		builder.WriteString("\n## Grader Notes\n")
		for _, note := range input.AnnotationNotes {
			builder.WriteString("- ")
			builder.WriteString(note)
			builder.WriteString("\n")
		}
	}
	if input.GeneralComments != "" {
		builder.WriteString("\n## General Comments\n")
		builder.WriteString(input.GeneralComments)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseReviewResponse(content string) (Review, error) {
	var data Review
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return Review{}, fmt.Errorf("parse review json: %w", err)
	}
	if strings.TrimSpace(data.Feedback) == "" {
		return Review{}, fmt.Errorf("review response missing feedback")
	}
	return data, nil
}
