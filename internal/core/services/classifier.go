package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/meridian-labs/mnemo/internal/core/domain"
	"github.com/meridian-labs/mnemo/internal/core/ports/driven"
	"github.com/meridian-labs/mnemo/internal/logger"
)

// classifyMaxContent caps how much document text is sent to the LLM.
const classifyMaxContent = 4000

// classifyPrompt instructs the model to return strict JSON.
const classifyPrompt = `Analyse the following text and respond with a single JSON object, no other text.

The JSON object must have exactly these fields:
  "summary": a one or two sentence summary of the text
  "bucket": one of "personal", "creative", "project"
  "confidence": an integer between 0 and 100
  "entities": an array of up to 8 notable names, places, or terms from the text

Text:
%s`

// ClassifierService derives summaries and bucket labels for documents
// using an LLM. Classification is advisory: any failure degrades to an
// unclassified result rather than an error.
type ClassifierService struct {
	llm driven.LLMService
}

// NewClassifierService creates a new classifier service.
// The llm parameter is optional (can be nil).
func NewClassifierService(llm driven.LLMService) *ClassifierService {
	return &ClassifierService{llm: llm}
}

// Available reports whether an LLM is wired in.
func (c *ClassifierService) Available() bool {
	return c.llm != nil
}

// Classify analyses content and returns a classification. When the LLM is
// unavailable or returns malformed output, it returns Unclassified together
// with an error wrapping domain.ErrClassificationDegraded so callers can
// record a warning and continue.
func (c *ClassifierService) Classify(ctx context.Context, content string) (domain.Classification, error) {
	if c.llm == nil {
		return domain.Unclassified(), fmt.Errorf("%w: no LLM service configured", domain.ErrClassificationDegraded)
	}

	excerpt := content
	if len(excerpt) > classifyMaxContent {
		excerpt = truncateRunes(excerpt, classifyMaxContent)
	}

	prompt := fmt.Sprintf(classifyPrompt, excerpt)

	logger.Debug("Classify: prompting %s (%d chars of content)", c.llm.ModelName(), len(excerpt))

	raw, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   512,
		Temperature: 0.1,
	})
	if err != nil {
		logger.Warn("Classify: LLM generation failed: %v", err)
		return domain.Unclassified(), fmt.Errorf("%w: %v", domain.ErrClassificationDegraded, err)
	}

	parsed, err := parseClassification(raw)
	if err != nil {
		logger.Warn("Classify: malformed LLM output: %v", err)
		return domain.Unclassified(), fmt.Errorf("%w: %v", domain.ErrClassificationDegraded, err)
	}

	logger.Debug("Classify: bucket=%s confidence=%d entities=%d",
		parsed.Bucket, parsed.Confidence, len(parsed.Entities))

	return parsed, nil
}

// classifyResponse is the expected JSON shape of the LLM output.
type classifyResponse struct {
	Summary    string   `json:"summary"`
	Bucket     string   `json:"bucket"`
	Confidence float64  `json:"confidence"`
	Entities   []string `json:"entities"`
}

// parseClassification extracts a Classification from raw LLM output.
// Models frequently wrap JSON in markdown fences or prose, so it locates
// the outermost JSON object before decoding.
func parseClassification(raw string) (domain.Classification, error) {
	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		return domain.Unclassified(), fmt.Errorf("no JSON object in output")
	}

	var resp classifyResponse
	if err := json.Unmarshal([]byte(jsonText), &resp); err != nil {
		return domain.Unclassified(), fmt.Errorf("decode classification: %w", err)
	}

	if strings.TrimSpace(resp.Summary) == "" {
		return domain.Unclassified(), fmt.Errorf("classification missing summary")
	}

	// Some models answer with a 0-1 fraction despite the prompt.
	confidence := resp.Confidence
	if confidence > 0 && confidence <= 1 {
		confidence *= 100
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	entities := make([]string, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		e = strings.TrimSpace(e)
		if e != "" {
			entities = append(entities, e)
		}
	}

	return domain.Classification{
		Summary:    strings.TrimSpace(resp.Summary),
		Bucket:     domain.ParseBucket(resp.Bucket),
		Confidence: int(math.Round(confidence)),
		Entities:   entities,
	}, nil
}

// extractJSONObject returns the substring spanning the first '{' through the
// last '}', stripping any surrounding prose or markdown fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return ""
	}
	return raw[start : end+1]
}

// truncateRunes shortens s to at most n runes without splitting a rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
