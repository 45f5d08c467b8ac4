package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/types"
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.00001v1</id>
    <title>Attention Mechanisms in  Citation Networks</title>
    <summary>
      We study attention over citation graphs.
    </summary>
    <published>2023-01-02T18:00:00Z</published>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2301.00001v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2301.00001v1" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2302.00002v2</id>
    <title>Second Paper</title>
    <summary>Another abstract.</summary>
    <published>2024-06-01T00:00:00Z</published>
    <author><name>Grace Hopper</name></author>
  </entry>
</feed>`

func testArxivConfig(baseURL string) ArxivConfig {
	cfg := DefaultArxivConfig()
	cfg.BaseURL = baseURL
	cfg.RetryCount = 1
	cfg.RetryDelay = 10 * time.Millisecond
	return cfg
}

func TestArxivSource_Search(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(arxivFixture))
	}))
	defer srv.Close()

	src := NewArxivSource(testArxivConfig(srv.URL), zap.NewNop())
	refs, err := src.Search(context.Background(), "citation networks", 5)

	require.NoError(t, err)
	assert.Contains(t, gotQuery, "all:citation networks")
	require.Len(t, refs, 2)

	first := refs[0]
	assert.Equal(t, "Attention Mechanisms in  Citation Networks", first.Title)
	assert.Equal(t, "We study attention over citation graphs.", first.Abstract)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, first.Authors)
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, "http://arxiv.org/abs/2301.00001v1", first.URL)
	assert.Equal(t, "arxiv", first.Source)

	// Entries without an alternate link fall back to the entry ID.
	assert.Equal(t, "http://arxiv.org/abs/2302.00002v2", refs[1].URL)
	assert.Equal(t, 2024, refs[1].Year)
}

func TestArxivSource_CategoryFilter(t *testing.T) {
	cfg := testArxivConfig("")
	cfg.Categories = []string{"cs.AI", "cs.CL"}
	src := NewArxivSource(cfg, zap.NewNop())

	query := src.buildQuery("transformers")
	assert.Contains(t, query, "all:transformers")
	assert.Contains(t, query, "cat:cs.AI+OR+cat:cs.CL")
}

func TestArxivSource_RetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewArxivSource(testArxivConfig(srv.URL), zap.NewNop())
	_, err := src.Search(context.Background(), "anything", 5)

	require.Error(t, err)
	assert.Equal(t, 2, calls, "initial attempt plus one retry")
	assert.Equal(t, types.ErrCollection, types.GetErrorCode(err))
}

func TestArxivSource_RetryRecovers(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(arxivFixture))
	}))
	defer srv.Close()

	src := NewArxivSource(testArxivConfig(srv.URL), zap.NewNop())
	refs, err := src.Search(context.Background(), "anything", 5)

	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestArxivSource_MalformedXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<feed><entry><title>unclosed"))
	}))
	defer srv.Close()

	src := NewArxivSource(testArxivConfig(srv.URL), zap.NewNop())
	_, err := src.Search(context.Background(), "anything", 5)

	require.Error(t, err)
	assert.Equal(t, types.ErrCollection, types.GetErrorCode(err))
}
