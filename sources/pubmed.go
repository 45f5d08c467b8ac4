package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/internal/tlsutil"
	"github.com/paperpilot/paperpilot/types"
)

// PubMedConfig configures the PubMed source.
type PubMedConfig struct {
	BaseURL    string        `json:"base_url" yaml:"base_url"`
	APIKey     string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	MaxResults int           `json:"max_results" yaml:"max_results"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	RetryCount int           `json:"retry_count" yaml:"retry_count"`
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// DefaultPubMedConfig returns sensible defaults for the NCBI E-utilities API.
func DefaultPubMedConfig() PubMedConfig {
	return PubMedConfig{
		BaseURL:    "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		MaxResults: 10,
		Timeout:    30 * time.Second,
		RetryCount: 3,
		RetryDelay: 1 * time.Second,
	}
}

// PubMedSource searches PubMed in two hops: esearch resolves the query to
// PMIDs, efetch pulls article metadata for those PMIDs.
type PubMedSource struct {
	config PubMedConfig
	client *http.Client
	logger *zap.Logger
}

// NewPubMedSource creates a PubMed source.
func NewPubMedSource(config PubMedConfig, logger *zap.Logger) *PubMedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PubMedSource{
		config: config,
		client: tlsutil.SecureHTTPClient(config.Timeout),
		logger: logger.With(zap.String("component", "source"), zap.String("source", "pubmed")),
	}
}

func (p *PubMedSource) Name() string { return "pubmed" }

func (p *PubMedSource) Search(ctx context.Context, query string, maxResults int) ([]types.Reference, error) {
	if maxResults <= 0 {
		maxResults = p.config.MaxResults
	}

	p.logger.Info("querying PubMed", zap.String("query", query), zap.Int("max_results", maxResults))

	ids, err := p.searchIDs(ctx, query, maxResults)
	if err != nil {
		return nil, types.NewError(types.ErrCollection, "PubMed esearch failed").WithCause(err)
	}
	if len(ids) == 0 {
		p.logger.Warn("no PubMed results", zap.String("query", query))
		return nil, nil
	}

	refs, err := p.fetchDetails(ctx, ids)
	if err != nil {
		return nil, types.NewError(types.ErrCollection, "PubMed efetch failed").WithCause(err)
	}

	p.logger.Info("PubMed search completed", zap.String("query", query), zap.Int("results", len(refs)))
	return refs, nil
}

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (p *PubMedSource) searchIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(maxResults)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	if p.config.APIKey != "" {
		params.Set("api_key", p.config.APIKey)
	}
	requestURL := fmt.Sprintf("%s/esearch.fcgi?%s", strings.TrimRight(p.config.BaseURL, "/"), params.Encode())

	body, err := p.doRequest(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("esearch parse error: %w", err)
	}
	return resp.Result.IDList, nil
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID    string `xml:"MedlineCitation>PMID"`
	Article struct {
		Title    string `xml:"ArticleTitle"`
		Abstract struct {
			Texts []string `xml:"AbstractText"`
		} `xml:"Abstract"`
		Authors []struct {
			LastName string `xml:"LastName"`
			ForeName string `xml:"ForeName"`
		} `xml:"AuthorList>Author"`
		Journal struct {
			PubDate struct {
				Year string `xml:"Year"`
			} `xml:"JournalIssue>PubDate"`
		} `xml:"Journal"`
	} `xml:"MedlineCitation>Article"`
}

func (p *PubMedSource) fetchDetails(ctx context.Context, ids []string) ([]types.Reference, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
		"rettype": {"abstract"},
	}
	if p.config.APIKey != "" {
		params.Set("api_key", p.config.APIKey)
	}
	requestURL := fmt.Sprintf("%s/efetch.fcgi?%s", strings.TrimRight(p.config.BaseURL, "/"), params.Encode())

	body, err := p.doRequest(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("efetch parse error: %w", err)
	}

	refs := make([]types.Reference, 0, len(set.Articles))
	for _, article := range set.Articles {
		ref := types.Reference{
			Title:    strings.TrimSpace(article.Article.Title),
			Abstract: strings.TrimSpace(strings.Join(article.Article.Abstract.Texts, " ")),
			URL:      fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", article.PMID),
			Source:   p.Name(),
		}
		for _, author := range article.Article.Authors {
			switch {
			case author.ForeName != "" && author.LastName != "":
				ref.Authors = append(ref.Authors, author.ForeName+" "+author.LastName)
			case author.LastName != "":
				ref.Authors = append(ref.Authors, author.LastName)
			}
		}
		if year, err := strconv.Atoi(article.Article.Journal.PubDate.Year); err == nil {
			ref.Year = year
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// doRequest executes a GET with exponential backoff on 429 and transport
// errors, the pacing the E-utilities usage policy expects.
func (p *PubMedSource) doRequest(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= p.config.RetryCount; attempt++ {
		if attempt > 0 {
			delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			p.logger.Debug("retrying PubMed request", zap.Int("attempt", attempt))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK && readErr == nil:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("PubMed rate limit reached")
			p.logger.Warn("PubMed rate limited", zap.Int("attempt", attempt))
		case readErr != nil:
			lastErr = readErr
		default:
			lastErr = fmt.Errorf("PubMed API returned status %d", resp.StatusCode)
		}
	}
	return nil, fmt.Errorf("PubMed request failed after %d retries: %w", p.config.RetryCount, lastErr)
}
