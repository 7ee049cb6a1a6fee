package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/incidentlabs/hybrid-index/internal/data"
)

// DefaultMaxTokens bounds the content sent per extraction call, using the
// rough 4-characters-per-token estimate.
const DefaultMaxTokens = 16000

// OpenAI implements Extractor with chat completions in JSON mode.
type OpenAI struct {
	client    *openai.Client
	model     openai.ChatModel
	maxTokens int
}

var _ Extractor = (*OpenAI)(nil)

// NewOpenAI creates an extractor using the given client. An optional
// maxTokens parameter overrides the truncation limit.
func NewOpenAI(client *openai.Client, maxTokens ...int) *OpenAI {
	limit := DefaultMaxTokens
	if len(maxTokens) > 0 && maxTokens[0] > 0 {
		limit = maxTokens[0]
	}
	return &OpenAI{
		client:    client,
		model:     openai.ChatModelGPT4o,
		maxTokens: limit,
	}
}

// InferSchema samples up to maxElements elements across the batch and asks
// the model for a named property schema. Duplicate fields in the response are
// merged with type promotion before the schema is returned.
func (o *OpenAI) InferSchema(ctx context.Context, sample []*data.Element, name string, maxElements int) (*Schema, error) {
	if maxElements > 0 && len(sample) > maxElements {
		sample = sample[:maxElements]
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("infer schema %q: no elements to sample", name)
	}

	var sb strings.Builder
	for i, el := range sample {
		fmt.Fprintf(&sb, "--- element %d ---\n%s\n", i, el.Text)
	}

	prompt := fmt.Sprintf(`You are inferring a metadata schema for a collection of %s documents.
Below are sample text elements drawn from the collection.

%s

Identify the named, typed fields that consistently appear across these documents
(for example dates, locations, identifiers, equipment names). Allowed types:
"string", "int", "float", "bool", "list".

Respond in JSON format:
{"fields": [{"name": "fieldName", "type": "string", "examples": ["value1", "value2"]}]}`,
		name, o.truncate(sb.String()))

	var parsed struct {
		Fields []SchemaField `json:"fields"`
	}
	if err := o.completeJSON(ctx, prompt, &parsed); err != nil {
		return nil, fmt.Errorf("infer schema %q: %w", name, err)
	}
	if len(parsed.Fields) == 0 {
		return nil, fmt.Errorf("infer schema %q: model returned no fields", name)
	}

	return &Schema{Name: name, Fields: merge(parsed.Fields)}, nil
}

// ExtractProperties applies the schema to one document and writes the values
// the model found into the document's entity properties. Missing fields are
// omitted, never an error.
func (o *OpenAI) ExtractProperties(ctx context.Context, doc *data.Document, schema *Schema) error {
	text := doc.Text
	if text == "" {
		var parts []string
		for _, el := range doc.Elements {
			parts = append(parts, el.Text)
		}
		text = strings.Join(parts, "\n")
	}
	if text == "" {
		return nil
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	prompt := fmt.Sprintf(`Extract metadata from the document below according to this schema:

%s

Document:
%s

Respond in JSON format with one key per schema field you can find in the
document. Omit fields that are not present; do not guess. Example:
{"dateAndTime": "January 17, 2023 10:00 AM", "location": "Dallas, Texas"}`,
		schemaJSON, o.truncate(text))

	var values map[string]any
	if err := o.completeJSON(ctx, prompt, &values); err != nil {
		return fmt.Errorf("extract properties: %w", err)
	}

	entity := doc.Entity()
	for name, value := range values {
		field, ok := schema.Field(name)
		if !ok || value == nil {
			continue
		}
		if coerced, ok := coerce(value, field.Type); ok {
			entity[name] = coerced
		}
	}
	return nil
}

// completeJSON runs one JSON-mode chat completion with backoff on rate
// limits, decoding the response into out.
func (o *OpenAI) completeJSON(ctx context.Context, prompt string, out any) error {
	var content string

	operation := func() error {
		resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: o.model,
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{
					Type: "json_object",
				},
			},
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("empty completion response"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("parse completion response: %w", err)
	}
	return nil
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// truncate bounds content to the configured token budget.
func (o *OpenAI) truncate(content string) string {
	maxChars := o.maxTokens * 4
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars]
}

// coerce converts a JSON-decoded value to the schema field type. The second
// return is false when the value cannot represent the declared type.
func coerce(value any, fieldType string) (any, bool) {
	switch fieldType {
	case TypeInt:
		if f, ok := value.(float64); ok {
			return int(f), true
		}
	case TypeFloat:
		if f, ok := value.(float64); ok {
			return f, true
		}
	case TypeBool:
		if b, ok := value.(bool); ok {
			return b, true
		}
	case TypeList:
		if l, ok := value.([]any); ok {
			return l, true
		}
		return []any{value}, true
	default:
		if s, ok := value.(string); ok {
			if s == "" {
				return nil, false
			}
			return s, true
		}
		// Models sometimes return numbers for string fields.
		return fmt.Sprintf("%v", value), true
	}
	return nil, false
}
