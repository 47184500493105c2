package schedule

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	aierrors "github.com/hrygo/rundown/internal/errors"
	"github.com/hrygo/rundown/plugin/ai"
	"github.com/hrygo/rundown/plugin/ai/timeout"
)

// MaxInputLength bounds the text sent for extraction, in bytes.
const MaxInputLength = 2000

var codeFencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

// Extractor asks the completion service to fill a Schema from free text.
// Every failure is an EXTRACTION_FAILURE error; callers are expected to
// fall back rather than fail the request.
type Extractor struct {
	completion ai.CompletionService
}

// NewExtractor creates an Extractor. A nil service makes every extraction fail.
func NewExtractor(completion ai.CompletionService) *Extractor {
	return &Extractor{completion: completion}
}

// Extract fills schema from text. now anchors relative dates in the prompt.
func (e *Extractor) Extract(ctx context.Context, text string, schema Schema, now time.Time) (*ExtractedIntent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, aierrors.ExtractionFailure("empty input", nil)
	}
	text = truncateUTF8(text, MaxInputLength)
	if e == nil || e.completion == nil {
		return nil, aierrors.ExtractionFailure("completion service not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.CompletionTimeout)
	defer cancel()

	raw, err := e.completion.Complete(ctx, schema.Prompt(text, now))
	if err != nil {
		return nil, aierrors.ExtractionFailure("completion failed", err).WithContext("kind", string(schema.Kind))
	}

	fields, err := ParseFields(raw)
	if err != nil {
		slog.Debug("discarding malformed extraction",
			"kind", schema.Kind,
			"response_len", len(raw),
			"error", err)
		return nil, aierrors.ExtractionFailure("malformed completion output", err).WithContext("kind", string(schema.Kind))
	}

	return &ExtractedIntent{Kind: schema.Kind, RawText: text, Fields: fields}, nil
}

// ExtractDate returns the date phrase in text, or "" when there is none.
func (e *Extractor) ExtractDate(ctx context.Context, text string, now time.Time) (string, error) {
	intent, err := e.Extract(ctx, text, DateSchema, now)
	if err != nil {
		return "", err
	}
	return String(intent.Fields.Date), nil
}

// ParseFields decodes a completion response into Fields. Markdown fences
// and prose around the JSON object are tolerated.
func ParseFields(response string) (Fields, error) {
	body := StripCodeFence(response)
	if body == "" {
		return Fields{}, errors.New("empty response")
	}

	var raw rawFields
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		obj, ok := outermostObject(body)
		if !ok {
			return Fields{}, errors.Wrap(err, "response is not a JSON object")
		}
		if err := json.Unmarshal([]byte(obj), &raw); err != nil {
			return Fields{}, errors.Wrap(err, "failed to decode JSON object")
		}
	}
	return raw.normalize(), nil
}

// StripCodeFence returns the content of the first markdown code fence in s,
// or s trimmed when there is none.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// An unterminated fence still carries its body.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
	}
	return strings.TrimSpace(s)
}

func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// truncateUTF8 cuts s to at most n bytes without splitting a character.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
