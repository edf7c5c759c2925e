// Package gemini classifies frames by asking a Gemini vision model to score a
// fixed label set.
package gemini

import (
	"ScanCheckout/internal/entity"
	"ScanCheckout/pkg/inference"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/generative-ai-go/genai"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/api/option"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultModelName = "gemini-1.5-flash"

// generator is the slice of genai used here, swapped out in tests.
type generator interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

type genaiGenerator struct {
	client    *genai.Client
	modelName string
}

func (g *genaiGenerator) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)

	format := strings.TrimPrefix(mimeType, "image/")
	res, err := model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, image))
	if err != nil {
		return "", err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini API")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("unexpected response format from Gemini API")
	}

	return string(text), nil
}

// Loader hands out models that share one Gemini client. The client is closed
// by Loader.Close, not by the models.
type Loader struct {
	gen    generator
	client *genai.Client
	labels []string
}

func NewLoader(ctx context.Context, labels []string) (*Loader, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = defaultModelName
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Loader{
		gen:    &genaiGenerator{client: client, modelName: modelName},
		client: client,
		labels: append([]string(nil), labels...),
	}, nil
}

func (l *Loader) Load(ctx context.Context) (inference.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(l.labels) == 0 {
		return nil, errors.New("no labels to classify against")
	}

	return &model{
		gen:    l.gen,
		labels: l.labels,
		prompt: buildPrompt(l.labels),
	}, nil
}

func (l *Loader) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

type model struct {
	gen    generator
	labels []string
	prompt string
	closed atomic.Bool
}

func (m *model) TotalClasses() int {
	return len(m.labels)
}

func (m *model) Labels() []string {
	return append([]string(nil), m.labels...)
}

func (m *model) Classify(ctx context.Context, frame entity.Frame) (entity.ClassificationResult, error) {
	if m.closed.Load() {
		return nil, inference.ErrModelClosed
	}

	mimeType := frame.ContentType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	text, err := m.gen.Generate(ctx, m.prompt, frame.Data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	return parseScores(text, m.labels)
}

func (m *model) Close() error {
	m.closed.Store(true)
	return nil
}

func buildPrompt(labels []string) string {
	var sb strings.Builder
	sb.WriteString("You are the product recognizer of a self-checkout kiosk. ")
	sb.WriteString("Look at the image and estimate, for each product name below, the probability ")
	sb.WriteString("between 0 and 1 that the product is the main object held in front of the camera. ")
	sb.WriteString("Answer with a single JSON object mapping every product name exactly as written to its probability, ")
	sb.WriteString("and nothing else.\nProducts:\n")
	for _, l := range labels {
		sb.WriteString("- ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseScores reads the first JSON object in text and returns one entry per
// label in label order. Missing labels score 0 and values are clamped to [0,1].
func parseScores(text string, labels []string) (entity.ClassificationResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response: %q", text)
	}

	var scores map[string]float64
	if err := json.Unmarshal([]byte(text[start:end+1]), &scores); err != nil {
		return nil, fmt.Errorf("error unmarshaling model response: %w", err)
	}

	result := make(entity.ClassificationResult, 0, len(labels))
	for _, label := range labels {
		p := scores[label]
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		result = append(result, entity.Prediction{Label: label, Probability: p})
	}
	return result, nil
}
