// FilePath: internal/enrichment/client.go
package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/aquasense/tdshub/internal/config"
	"github.com/aquasense/tdshub/internal/errors"
	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"
)

// Explainer turns a numeric session average into a human-readable
// water-quality explanation. Implementations must respect the context
// deadline; callers substitute a fallback string on any error.
type Explainer interface {
	Explain(ctx context.Context, deviceID string, avgTDSPpm float64, readingCount int) (string, error)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	httpClient *resty.Client
	model      string
}

func NewClient(cfg config.EnrichmentConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &Client{httpClient: client, model: cfg.Model}
}

// Explain requests a short explanation of the averaged TDS value. The
// call blocks up to the configured timeout or the caller's context
// deadline, whichever is sooner.
func (c *Client) Explain(ctx context.Context, deviceID string, avgTDSPpm float64, readingCount int) (string, error) {
	prompt := fmt.Sprintf(
		"A water quality sensor (device %s) measured an average of %.2f ppm "+
			"Total Dissolved Solids over %d readings. In two sentences, explain "+
			"what this value means for drinking water quality.",
		deviceID, avgTDSPpm, readingCount,
	)

	var result chatResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: "You are a water quality assistant. Be concise and factual."},
				{Role: "user", Content: prompt},
			},
		}).
		SetResult(&result).
		Post("/v1/chat/completions")
	if err != nil {
		return "", errors.NewEnrichmentError("enrichment request failed", err)
	}
	if resp.IsError() {
		return "", errors.NewEnrichmentError(
			fmt.Sprintf("enrichment service returned %d", resp.StatusCode()), nil)
	}
	if result.Error != nil {
		return "", errors.NewEnrichmentError(result.Error.Message, nil)
	}
	if len(result.Choices) == 0 {
		return "", errors.NewEnrichmentError("enrichment response contained no choices", nil)
	}

	explanation := strings.TrimSpace(result.Choices[0].Message.Content)
	if explanation == "" {
		return "", errors.NewEnrichmentError("enrichment response was empty", nil)
	}
	nuts.L.Debugf("[Enrichment] Explanation generated for device %s (%d chars)", deviceID, len(explanation))
	return explanation, nil
}

// FallbackExplanation is the deterministic substitute used when the
// enrichment call fails. It always embeds the numeric average so the
// analysis record stays useful.
func FallbackExplanation(avgTDSPpm float64, reason error) string {
	return fmt.Sprintf(
		"Average TDS was %.2f ppm. A detailed explanation could not be generated (%v).",
		avgTDSPpm, reason,
	)
}
