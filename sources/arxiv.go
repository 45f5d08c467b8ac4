package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/internal/tlsutil"
	"github.com/paperpilot/paperpilot/types"
)

// ArxivConfig configures the arXiv source.
type ArxivConfig struct {
	BaseURL    string        `json:"base_url" yaml:"base_url"`
	MaxResults int           `json:"max_results" yaml:"max_results"`
	SortBy     string        `json:"sort_by" yaml:"sort_by"`       // "relevance", "lastUpdatedDate", "submittedDate"
	SortOrder  string        `json:"sort_order" yaml:"sort_order"` // "ascending", "descending"
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	RetryCount int           `json:"retry_count" yaml:"retry_count"`
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
	Categories []string      `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// DefaultArxivConfig returns sensible defaults for arXiv queries.
func DefaultArxivConfig() ArxivConfig {
	return ArxivConfig{
		BaseURL:    "http://export.arxiv.org/api/query",
		MaxResults: 20,
		SortBy:     "relevance",
		SortOrder:  "descending",
		Timeout:    30 * time.Second,
		RetryCount: 3,
		RetryDelay: 2 * time.Second,
	}
}

// ArxivSource searches arXiv through its Atom query API.
type ArxivSource struct {
	config ArxivConfig
	client *http.Client
	logger *zap.Logger
}

// NewArxivSource creates an arXiv source.
func NewArxivSource(config ArxivConfig, logger *zap.Logger) *ArxivSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArxivSource{
		config: config,
		client: tlsutil.SecureHTTPClient(config.Timeout),
		logger: logger.With(zap.String("component", "source"), zap.String("source", "arxiv")),
	}
}

func (a *ArxivSource) Name() string { return "arxiv" }

// Search queries arXiv and maps Atom entries to references.
func (a *ArxivSource) Search(ctx context.Context, query string, maxResults int) ([]types.Reference, error) {
	if maxResults <= 0 {
		maxResults = a.config.MaxResults
	}

	params := url.Values{
		"search_query": {a.buildQuery(query)},
		"start":        {"0"},
		"max_results":  {fmt.Sprintf("%d", maxResults)},
		"sortBy":       {a.config.SortBy},
		"sortOrder":    {a.config.SortOrder},
	}
	requestURL := fmt.Sprintf("%s?%s", a.config.BaseURL, params.Encode())

	a.logger.Info("querying arXiv",
		zap.String("query", query),
		zap.Int("max_results", maxResults))

	var body []byte
	var err error
	for attempt := 0; attempt <= a.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.config.RetryDelay):
			}
			a.logger.Debug("retrying arXiv query", zap.Int("attempt", attempt))
		}

		body, err = a.doRequest(ctx, requestURL)
		if err == nil {
			break
		}
		a.logger.Warn("arXiv request failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	if err != nil {
		return nil, types.NewErrorf(types.ErrCollection, "arXiv query failed after %d retries", a.config.RetryCount).WithCause(err)
	}

	refs, err := a.parseResponse(body)
	if err != nil {
		return nil, types.NewError(types.ErrCollection, "failed to parse arXiv response").WithCause(err)
	}

	a.logger.Info("arXiv search completed",
		zap.String("query", query),
		zap.Int("results", len(refs)))
	return refs, nil
}

func (a *ArxivSource) buildQuery(query string) string {
	searchParts := []string{fmt.Sprintf("all:%s", query)}

	if len(a.config.Categories) > 0 {
		catParts := make([]string, len(a.config.Categories))
		for i, cat := range a.config.Categories {
			catParts[i] = fmt.Sprintf("cat:%s", cat)
		}
		searchParts = append(searchParts, fmt.Sprintf("(%s)", strings.Join(catParts, "+OR+")))
	}
	return strings.Join(searchParts, "+AND+")
}

func (a *ArxivSource) doRequest(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
	Links     []arxivLink   `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

func (a *ArxivSource) parseResponse(body []byte) ([]types.Reference, error) {
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("XML parse error: %w", err)
	}

	refs := make([]types.Reference, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		ref := types.Reference{
			Title:    strings.TrimSpace(entry.Title),
			Abstract: strings.TrimSpace(entry.Summary),
			URL:      entry.ID,
			Source:   a.Name(),
		}
		for _, author := range entry.Authors {
			ref.Authors = append(ref.Authors, author.Name)
		}
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			ref.Year = t.Year()
		}
		// Prefer the abstract page link over the bare entry ID.
		for _, link := range entry.Links {
			if link.Rel == "alternate" {
				ref.URL = link.Href
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
