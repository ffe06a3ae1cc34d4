// Package translate provides a client for the unofficial Google translate
// endpoint used for line-by-line lyric translation.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/helixworks/go-agents/internal/httpc"
)

// DefaultServiceURL is the public translate endpoint.
const DefaultServiceURL = "https://translate.googleapis.com"

// Sentinel errors for the translate package.
var (
	// ErrMissingTarget indicates no target language was configured.
	ErrMissingTarget = errors.New("translate: target language is required")

	// ErrEmptyResponse indicates the service returned no translation.
	ErrEmptyResponse = errors.New("translate: empty response from service")
)

// Config configures the translation client.
type Config struct {
	// TargetLanguage is the ISO-639-1 code to translate into.
	TargetLanguage string

	// ServiceURLs overrides the endpoints to try in order.
	// Defaults to TRANSLATE_SERVICE_URLS (comma-separated) or the public endpoint.
	ServiceURLs []string

	// HTTPClient is the client used for API requests.
	HTTPClient *http.Client
}

// Client translates text lines into a fixed target language.
type Client struct {
	target      string
	serviceURLs []string
	client      *http.Client
}

// NewClient creates a translation client for the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.TargetLanguage == "" {
		return nil, ErrMissingTarget
	}

	urls := cfg.ServiceURLs
	if len(urls) == 0 {
		if env := os.Getenv("TRANSLATE_SERVICE_URLS"); env != "" {
			for _, u := range strings.Split(env, ",") {
				if u = strings.TrimSpace(u); u != "" {
					urls = append(urls, u)
				}
			}
		}
	}
	if len(urls) == 0 {
		urls = []string{DefaultServiceURL}
	}

	client := cfg.HTTPClient
	if client == nil {
		client = httpc.Client
	}

	return &Client{
		target:      cfg.TargetLanguage,
		serviceURLs: urls,
		client:      client,
	}, nil
}

// Target returns the configured target language code.
func (c *Client) Target() string {
	return c.target
}

// TranslateLine translates a single line of text.
// The source language is auto-detected by the service.
func (c *Client) TranslateLine(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	var lastErr error
	for _, base := range c.serviceURLs {
		translated, err := c.translateOnce(ctx, base, text)
		if err == nil {
			return translated, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// TranslateLines translates a sequence of lines, preserving order.
func (c *Client) TranslateLines(ctx context.Context, lines []string) ([]string, error) {
	translations := make([]string, len(lines))
	for i, line := range lines {
		translated, err := c.TranslateLine(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("translate: line %d: %w", i, err)
		}
		translations[i] = translated
	}
	return translations, nil
}

func (c *Client) translateOnce(ctx context.Context, base, text string) (string, error) {
	endpoint := fmt.Sprintf("%s/translate_a/single?client=gtx&sl=auto&tl=%s&dt=t&q=%s",
		strings.TrimRight(base, "/"),
		url.QueryEscape(c.target),
		url.QueryEscape(text),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("translate: failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("translate: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate: %w", httpc.NewAPIError(resp.StatusCode, "", truncate(string(body), 200)))
	}

	return parseResponse(body)
}

// parseResponse extracts the translated text from the nested-array payload
// returned by the gtx endpoint: [[["translated","original",...],...],...].
func parseResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("translate: failed to parse response: %w", err)
	}
	if len(payload) == 0 {
		return "", ErrEmptyResponse
	}

	var sentences [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &sentences); err != nil {
		return "", fmt.Errorf("translate: failed to parse sentences: %w", err)
	}

	var sb strings.Builder
	for _, sentence := range sentences {
		if len(sentence) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(sentence[0], &part); err != nil {
			continue
		}
		sb.WriteString(part)
	}

	result := sb.String()
	if result == "" {
		return "", ErrEmptyResponse
	}
	return result, nil
}

// truncate shortens a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
