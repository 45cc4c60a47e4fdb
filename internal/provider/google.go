package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	DefaultGoogleBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGoogleModel   = "gemini-2.0-flash-exp"
)

type GoogleProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type GoogleOption func(*GoogleProvider)

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func WithBaseURL(u string) GoogleOption {
	return func(g *GoogleProvider) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout bounds each request. Zero leaves the transport default.
func WithTimeout(d time.Duration) GoogleOption {
	return func(g *GoogleProvider) { g.client.Timeout = d }
}

func NewGoogle(apiKey, model string, opts ...GoogleOption) *GoogleProvider {
	if model == "" {
		model = DefaultGoogleModel
	}
	g := &GoogleProvider{apiKey: apiKey, model: model, baseURL: DefaultGoogleBaseURL, client: &http.Client{}}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) ModelName() string { return g.model }

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

// Data is encoded as base64 by the JSON encoder.
type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func buildGeminiRequest(msgs []Message) geminiRequest {
	var req geminiRequest
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		default:
			parts := []geminiPart{}
			if m.Content != "" {
				parts = append(parts, geminiPart{Text: m.Content})
			}
			for _, a := range m.Attachments {
				parts = append(parts, geminiPart{InlineData: &geminiInlineData{MIMEType: a.MIMEType, Data: a.Data}})
			}
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: parts})
		}
	}
	return req
}

// Generate sends one non-streaming generateContent request and returns the
// concatenated text parts of the first candidate.
func (g *GoogleProvider) Generate(ctx context.Context, msgs []Message) (string, error) {
	payload, err := json.Marshal(buildGeminiRequest(msgs))
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: "google", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Provider: "google", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Provider: "google", StatusCode: resp.StatusCode, Message: parseProviderError("google", resp.StatusCode, body)}
	}

	var out geminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("google blocked the prompt: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", ErrEmptyReply
	}

	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", ErrEmptyReply
	}
	return b.String(), nil
}
