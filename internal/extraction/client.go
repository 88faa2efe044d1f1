package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config carries the extraction call configuration.
type Config struct {
	Model          string
	APIKey         string
	SizeLimitBytes int64
	Temperature    float64
}

// Extractor produces a schema-validated analysis from document bytes.
type Extractor interface {
	Extract(ctx context.Context, documentBytes []byte) (Result, error)
}

// Client implements Extractor against the Gemini generateContent API with
// structured output.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Gemini-backed extraction client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required")
	}
	if cfg.SizeLimitBytes <= 0 {
		cfg.SizeLimitBytes = 20 << 20
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	timeout := 180 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GEMINI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type generateRequest struct {
	Contents         []reqContent     `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type reqContent struct {
	Parts []reqPart `json:"parts"`
}

type reqPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64        `json:"temperature"`
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Extract sends the document through one generateContent call and returns a
// defaulted Result. The size precheck runs before any network traffic, so a
// caller can rely on no external call having been made on ErrPayloadTooLarge.
func (c *Client) Extract(ctx context.Context, documentBytes []byte) (Result, error) {
	if int64(len(documentBytes)) > c.cfg.SizeLimitBytes {
		return Result{}, fmt.Errorf("%w: document is %d bytes, exceeds the %dMB inline limit",
			ErrPayloadTooLarge, len(documentBytes), c.cfg.SizeLimitBytes>>20)
	}

	pagesCount := CountPages(documentBytes)

	reqBody := generateRequest{
		Contents: []reqContent{{
			Parts: []reqPart{
				{InlineData: &inlineData{
					MimeType: "application/pdf",
					Data:     base64.StdEncoding.EncodeToString(documentBytes),
				}},
				{Text: AnalyzePrompt()},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      c.cfg.Temperature,
			ResponseMIMEType: "application/json",
			ResponseSchema:   resultResponseSchema(),
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var parsed generateResponse
		msg := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
			msg = fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Status)
		}
		return Result{}, fmt.Errorf("%w: http status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, msg)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("%w: response parse: %v", ErrMalformedResponse, err)
	}
	if parsed.Error != nil {
		return Result{}, fmt.Errorf("%w: %s (%s)", ErrUpstreamUnavailable, parsed.Error.Message, parsed.Error.Status)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("%w: response missing candidates", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	result, err := ParseResult(text.String())
	if err != nil {
		return Result{}, err
	}

	// The model's self-reported meta is never trusted; these four fields are
	// authoritative local facts.
	result.Meta.ModelUsed = c.cfg.Model
	result.Meta.PagesCount = pagesCount
	result.Meta.ProcessedAt = time.Now().UTC().Format(time.RFC3339)
	result.Meta.SchemaVersion = SchemaVersion

	return result, nil
}

func resultResponseSchema() map[string]any {
	stringArray := map[string]any{
		"type":  "ARRAY",
		"items": map[string]any{"type": "STRING"},
	}
	personaProps := make(map[string]any, len(Personas))
	for _, persona := range Personas {
		personaProps[persona] = stringArray
	}
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"one_liner": map[string]any{"type": "STRING"},
			"themes":    stringArray,
			"strengths": stringArray,
			"risks":     stringArray,
			"questions_by_persona": map[string]any{
				"type":       "OBJECT",
				"properties": personaProps,
			},
			"evidence": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"topic": map[string]any{"type": "STRING"},
						"pages": map[string]any{
							"type":  "ARRAY",
							"items": map[string]any{"type": "INTEGER"},
						},
					},
				},
			},
			"meta": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"model_used":     map[string]any{"type": "STRING"},
					"pages_count":    map[string]any{"type": "INTEGER"},
					"processed_at":   map[string]any{"type": "STRING"},
					"schema_version": map[string]any{"type": "STRING"},
				},
			},
		},
	}
}

var _ Extractor = (*Client)(nil)
