// Package lyrics fetches and normalizes song lyrics.
//
// The default backend is the lyrics.ovh public API; a plain text file can be
// used instead to skip the HTTP lookup entirely.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/helixworks/go-agents/internal/httpc"
)

// DefaultBaseURL is the lyrics.ovh API endpoint.
const DefaultBaseURL = "https://api.lyrics.ovh/v1"

// Sentinel errors for the lyrics package.
var (
	// ErrEmptyLyrics indicates the API returned no lyric text.
	ErrEmptyLyrics = errors.New("lyrics: API returned empty text")

	// ErrNoLines indicates no lyric lines remained after normalization.
	ErrNoLines = errors.New("lyrics: no lyric lines available after normalization")
)

// Config configures the lyrics provider.
type Config struct {
	// BaseURL overrides the default API endpoint.
	BaseURL string

	// HTTPClient is the client used for API requests.
	HTTPClient *http.Client
}

// Provider fetches and normalizes song lyrics.
type Provider struct {
	baseURL string
	client  *http.Client
}

// NewProvider creates a lyrics provider. A zero Config uses the lyrics.ovh
// API and the shared HTTP client; LYRICS_OVH_BASE_URL overrides the endpoint.
func NewProvider(cfg Config) *Provider {
	base := cfg.BaseURL
	if base == "" {
		base = os.Getenv("LYRICS_OVH_BASE_URL")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpc.Client
	}
	return &Provider{
		baseURL: strings.TrimRight(base, "/"),
		client:  client,
	}
}

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
	Error  string `json:"error"`
}

// Fetch retrieves the lyrics for a song and returns the normalized lines.
func (p *Provider) Fetch(ctx context.Context, artist, title string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s",
		p.baseURL,
		url.PathEscape(artist),
		url.PathEscape(title),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("lyrics: failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lyrics: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("lyrics: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lyrics: %w", httpc.NewAPIError(resp.StatusCode, "", truncate(string(body), 200)))
	}

	var decoded lyricsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("lyrics: failed to parse response: %w", err)
	}
	if decoded.Lyrics == "" {
		return nil, ErrEmptyLyrics
	}

	return Normalize(strings.Split(decoded.Lyrics, "\n"))
}

// LoadFile loads lyrics from a plain text file and returns the normalized lines.
func (p *Provider) LoadFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lyrics: failed to read file: %w", err)
	}
	return Normalize(strings.Split(string(content), "\n"))
}

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize trims lines, collapses inner whitespace, and drops empties.
// Returns ErrNoLines when nothing remains.
func Normalize(lines []string) ([]string, error) {
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		normalized = append(normalized, spaceRe.ReplaceAllString(stripped, " "))
	}
	if len(normalized) == 0 {
		return nil, ErrNoLines
	}
	return normalized, nil
}

// truncate shortens a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
