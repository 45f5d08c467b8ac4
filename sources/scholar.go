package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/internal/tlsutil"
	"github.com/paperpilot/paperpilot/types"
)

// ScholarConfig configures the Google Scholar source, which goes through
// SerpAPI because Scholar has no official API.
type ScholarConfig struct {
	BaseURL    string        `json:"base_url" yaml:"base_url"`
	APIKey     string        `json:"api_key" yaml:"api_key"`
	MaxResults int           `json:"max_results" yaml:"max_results"`
	YearWindow int           `json:"year_window" yaml:"year_window"` // restrict to papers from the last N years; 0 disables
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultScholarConfig returns sensible defaults for SerpAPI queries.
func DefaultScholarConfig() ScholarConfig {
	return ScholarConfig{
		BaseURL:    "https://serpapi.com/search",
		MaxResults: 10,
		YearWindow: 5,
		Timeout:    30 * time.Second,
	}
}

// ScholarSource searches Google Scholar via the SerpAPI gateway.
type ScholarSource struct {
	config ScholarConfig
	client *http.Client
	logger *zap.Logger
}

// NewScholarSource creates a Google Scholar source.
func NewScholarSource(config ScholarConfig, logger *zap.Logger) *ScholarSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScholarSource{
		config: config,
		client: tlsutil.SecureHTTPClient(config.Timeout),
		logger: logger.With(zap.String("component", "source"), zap.String("source", "google_scholar")),
	}
}

func (s *ScholarSource) Name() string { return "google_scholar" }

type serpAPIResponse struct {
	OrganicResults []serpAPIResult `json:"organic_results"`
	Error          string          `json:"error,omitempty"`
}

type serpAPIResult struct {
	Title           string `json:"title"`
	Link            string `json:"link"`
	Snippet         string `json:"snippet"`
	PublicationInfo struct {
		Summary string `json:"summary"`
	} `json:"publication_info"`
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func (s *ScholarSource) Search(ctx context.Context, query string, maxResults int) ([]types.Reference, error) {
	if s.config.APIKey == "" {
		return nil, types.NewError(types.ErrConfiguration, "SerpAPI key is required for Google Scholar search")
	}
	if maxResults <= 0 {
		maxResults = s.config.MaxResults
	}
	// SerpAPI caps num at 20.
	if maxResults > 20 {
		maxResults = 20
	}

	params := url.Values{
		"engine":  {"google_scholar"},
		"q":       {query},
		"api_key": {s.config.APIKey},
		"num":     {strconv.Itoa(maxResults)},
	}
	if s.config.YearWindow > 0 {
		params.Set("as_ylo", strconv.Itoa(time.Now().Year()-s.config.YearWindow))
	}
	requestURL := fmt.Sprintf("%s?%s", s.config.BaseURL, params.Encode())

	s.logger.Info("querying Google Scholar", zap.String("query", query), zap.Int("max_results", maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, types.NewError(types.ErrCollection, "failed to create request").WithCause(err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrCollection, "Google Scholar request failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewError(types.ErrCollection, "failed to read Google Scholar response").WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewErrorf(types.ErrCollection, "SerpAPI returned status %d", resp.StatusCode)
	}

	var serpResp serpAPIResponse
	if err := json.Unmarshal(body, &serpResp); err != nil {
		return nil, types.NewError(types.ErrCollection, "failed to parse Google Scholar response").WithCause(err)
	}
	if serpResp.Error != "" {
		return nil, types.NewErrorf(types.ErrCollection, "SerpAPI error: %s", serpResp.Error)
	}

	refs := make([]types.Reference, 0, len(serpResp.OrganicResults))
	for _, result := range serpResp.OrganicResults {
		ref := types.Reference{
			Title:    result.Title,
			Abstract: result.Snippet,
			URL:      result.Link,
			Source:   s.Name(),
		}
		// publication_info.summary looks like "A Author, B Author - Journal, 2021 - publisher".
		if summary := result.PublicationInfo.Summary; summary != "" {
			ref.Authors = extractAuthors(summary)
			if m := yearPattern.FindString(summary); m != "" {
				if year, err := strconv.Atoi(m); err == nil {
					ref.Year = year
				}
			}
		}
		refs = append(refs, ref)
	}

	s.logger.Info("Google Scholar search completed", zap.String("query", query), zap.Int("results", len(refs)))
	return refs, nil
}

var authorSplit = regexp.MustCompile(`\s*,\s*`)

func extractAuthors(summary string) []string {
	// Everything before the first " - " is the author list.
	for i := 0; i+3 <= len(summary); i++ {
		if summary[i:i+3] == " - " {
			return authorSplit.Split(summary[:i], -1)
		}
	}
	return nil
}
