package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vibecheck",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI profile requests",
	}, []string{"model", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibecheck",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of AI profile request failures",
	}, []string{"model", "operation"})
)

// MaxGeneratedProfiles bounds a single generation request.
const MaxGeneratedProfiles = 10

// OpenAIConfig defines configuration options for the OpenAI profile generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGenerator implements ProfileGenerator against the OpenAI chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/vibecheck-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_generator").Logger(),
	}, nil
}

// GenerateStudents asks the model for count sample high school student profiles.
func (g *OpenAIGenerator) GenerateStudents(ctx context.Context, count int) ([]StudentProfile, error) {
	if count <= 0 {
		count = 3
	}
	if count > MaxGeneratedProfiles {
		count = MaxGeneratedProfiles
	}

	content, err := g.complete(ctx, "generate", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: generatorSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Generate %d student profiles. Return JSON.", count)},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Students []StudentProfile `json:"students"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("parse generated profiles: %w", err)
	}

	profiles := make([]StudentProfile, 0, len(payload.Students))
	for _, p := range payload.Students {
		p = p.trimmed()
		if p.Name == "" || p.RollNumber == "" || p.Grade == "" {
			continue
		}
		profiles = append(profiles, p)
		if len(profiles) == count {
			break
		}
	}
	return profiles, nil
}

// ExtractStudent reads the printed details of a physical ID card photo.
func (g *OpenAIGenerator) ExtractStudent(ctx context.Context, image CardImage) (StudentProfile, error) {
	if len(image.Data) == 0 {
		return StudentProfile{}, fmt.Errorf("card image is empty")
	}
	mimeType := image.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image.Data))

	content, err := g.complete(ctx, "extract", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: extractorSystemPrompt()},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "Extract the student details from this ID card. Return JSON."},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto}},
			},
		},
	})
	if err != nil {
		return StudentProfile{}, err
	}

	var profile StudentProfile
	if err := json.Unmarshal([]byte(content), &profile); err != nil {
		return StudentProfile{}, fmt.Errorf("parse extracted profile: %w", err)
	}
	return profile.trimmed(), nil
}

func (g *OpenAIGenerator) complete(parent context.Context, operation string, messages []openai.ChatCompletionMessage) (string, error) {
	ctx, span := g.tracer.Start(parent, "openai."+operation, trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	fail := func(err error) (string, error) {
		aiFailures.WithLabelValues(g.cfg.Model, operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn().Err(err).Str("operation", operation).Msg("openai request failed")
		return "", err
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          g.cfg.Model,
		MaxTokens:      g.cfg.MaxTokens,
		Temperature:    g.cfg.Temperature,
		Messages:       messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	aiDuration.WithLabelValues(g.cfg.Model, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return fail(fmt.Errorf("openai %s: %w", operation, err))
	}
	if len(resp.Choices) == 0 {
		return fail(fmt.Errorf("no choices returned from openai"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func generatorSystemPrompt() string {
	return "You generate sample roster data for a high school attendance app. Respond with a JSON object " +
		`{"students": [{"name": string, "roll_number": string, "grade": string}]}. ` +
		"Use diverse names of students aged 15 to 18, grades such as 10-A, 11-Science or 12-Commerce, and class roll numbers."
}

func extractorSystemPrompt() string {
	return "You read school ID cards. Respond with a JSON object with the keys name, roll_number, grade, section, " +
		"parent_name, parent_contact, dob, address and blood_group. Leave a key empty when it is not visible. " +
		"Infer the grade as a number when possible (X becomes 10) and split combined values such as 10-A into grade and section."
}

func (p StudentProfile) trimmed() StudentProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.RollNumber = strings.TrimSpace(p.RollNumber)
	p.Grade = strings.TrimSpace(p.Grade)
	p.Section = strings.TrimSpace(p.Section)
	p.ParentName = strings.TrimSpace(p.ParentName)
	p.ParentContact = strings.TrimSpace(p.ParentContact)
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	p.BloodGroup = strings.TrimSpace(p.BloodGroup)
	p.Address = strings.TrimSpace(p.Address)
	return p
}
