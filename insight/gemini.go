/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Seednode/matchwheel/roster"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"

	maxResponseBytes = 1 << 20
)

var errNoText = errors.New("no text in response")

// Gemini calls the generateContent endpoint of the Gemini API.
type Gemini struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	model          string
	fallbackModels []string
	log            Logger
}

// NewGemini returns a client for model, trying fallbackModels in order when
// a call fails.
func NewGemini(httpClient *http.Client, apiKey, baseURL, model string, fallbackModels []string, log Logger) *Gemini {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	return &Gemini{
		httpClient:     httpClient,
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		model:          model,
		fallbackModels: fallbackModels,
		log:            log,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate returns the model's HTML for a and b, or one of the fallback
// messages.
func (g *Gemini) Generate(ctx context.Context, a, b roster.Member) string {
	if g.apiKey == "" {
		return MissingKeyMessage
	}

	models := make([]string, 0, 1+len(g.fallbackModels))
	models = append(models, g.model)
	models = append(models, g.fallbackModels...)

	prompt := Prompt(a, b)

	for _, model := range models {
		text, err := g.generate(ctx, model, prompt)
		switch {
		case errors.Is(err, errNoText):
			return EmptyMessage
		case err != nil:
			g.logf("INSIGHT: Model %s failed for %q and %q: %v", model, a.Name, b.Name, err)
			if ctx.Err() != nil {
				return FailureMessage
			}
			continue
		}

		return text
	}

	return FailureMessage
}

func (g *Gemini) generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := g.baseURL + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}

	text := clean(sb.String())
	if text == "" {
		return "", errNoText
	}

	return text, nil
}

func (g *Gemini) logf(format string, args ...any) {
	if g.log != nil {
		g.log.Printf(format, args...)
	}
}
