package report

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp2pwn/reconspider/internal/extract"
	"github.com/dp2pwn/reconspider/internal/jsanalyze"
	"github.com/dp2pwn/reconspider/internal/probe"
	"github.com/dp2pwn/reconspider/internal/robots"
)

func loginForm(action string) extract.Form {
	return extract.Form{
		Action: action,
		Method: "POST",
		Fields: []extract.Field{{Type: "text", Name: "user"}, {Type: "password", Name: "pass"}},
	}
}

func TestAggregatorDeduplicatesFormsFirstWins(t *testing.T) {
	agg := NewAggregator("https://example.com")

	first := loginForm("/login")
	second := loginForm("/login")
	second.Fields = nil // same action:method key, different body

	agg.AddPage(PageResult{URL: "https://example.com/a", Forms: []extract.Form{first}})
	agg.AddPage(PageResult{URL: "https://example.com/b", Forms: []extract.Form{second}})

	rep := agg.Build(Features{})
	require.Len(t, rep.Forms.AllForms, 1)
	assert.Len(t, rep.Forms.AllForms[0].Fields, 2, "first occurrence wins")
	assert.Len(t, rep.Forms.ByMethod["POST"], 1)
	assert.Equal(t, 1, rep.CrawlSummary.TotalFormsFound)
}

func TestAggregatorMergesCookiesAndHeadersLastWriterWins(t *testing.T) {
	agg := NewAggregator("https://example.com")

	agg.AddPage(PageResult{
		URL:     "https://example.com/a",
		Cookies: map[string]string{"session": "one"},
		Headers: map[string]string{"Server": "nginx"},
	})
	agg.AddPage(PageResult{
		URL:     "https://example.com/b",
		Cookies: map[string]string{"session": "two", "lang": "en"},
	})

	rep := agg.Build(Features{})
	assert.Equal(t, "two", rep.Cookies["session"])
	assert.Equal(t, "en", rep.Cookies["lang"])
	assert.Equal(t, "nginx", rep.Headers["Server"])
}

func TestAggregatorSkipsFailedPagesButCountsThem(t *testing.T) {
	agg := NewAggregator("https://example.com")

	agg.AddPage(PageResult{
		URL:     "https://example.com/broken",
		Error:   "connection refused",
		Forms:   []extract.Form{loginForm("/x")},
		Cookies: map[string]string{"leak": "no"},
	})

	rep := agg.Build(Features{})
	assert.Equal(t, 1, rep.CrawlSummary.TotalPagesCrawled, "failures consume the page budget")
	assert.Empty(t, rep.Forms.AllForms)
	assert.Empty(t, rep.Cookies)
	require.Len(t, rep.DetailedResults, 1)
	assert.Equal(t, "connection refused", rep.DetailedResults[0].Error)
}

func TestEndpointTypePrecedence(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://example.com/api/users", "api"},
		{"https://example.com/rest/items", "rest"},
		{"https://example.com/v2/orders", "versioned"},
		{"https://example.com/api/v2/orders", "api"}, // api outranks versioned
		{"https://example.com/about", "other"},
		{"https://example.com/void", "other"}, // /v needs a digit
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EndpointType(tt.endpoint), "endpoint %q", tt.endpoint)
	}
}

func TestAggregatorEndpointBuckets(t *testing.T) {
	agg := NewAggregator("https://example.com")
	agg.AddEndpoints(
		"https://example.com/api/users",
		"https://example.com/rest/items",
		"https://example.com/v1/legacy",
		"https://example.com/search",
		"https://example.com/api/users", // duplicate
	)
	agg.AddJSAnalysis("https://example.com/app.js", &jsanalyze.Analysis{
		APIEndpoints: []string{"https://example.com/api/from-js"},
	})

	rep := agg.Build(Features{JSAnalysis: true})
	assert.Len(t, rep.APIEndpoints.AllEndpoints, 5)
	assert.Len(t, rep.APIEndpoints.ByType["api"], 2)
	assert.Len(t, rep.APIEndpoints.ByType["rest"], 1)
	assert.Len(t, rep.APIEndpoints.ByType["versioned"], 1)
	assert.Len(t, rep.APIEndpoints.ByType["other"], 1)
	assert.Equal(t, 1, rep.JavaScriptAnalysis.TotalAnalyzedPages)
}

func TestBuildCarriesCollaboratorSections(t *testing.T) {
	agg := NewAggregator("https://example.com")
	agg.SetRobots(&robots.Info{RobotsURL: "https://example.com/robots.txt", Fetched: true})
	agg.SetGuessedEndpoints([]probe.Result{{Path: "admin", StatusCode: 403, Found: true}})
	agg.SetHiddenFiles([]probe.HiddenFile{{Result: probe.Result{Path: ".env", Found: true}, SensitivityLevel: 1}})

	rep := agg.Build(Features{EndpointGuessing: true, HiddenFileScanning: true})
	assert.True(t, rep.CrawlSummary.RobotsTxtData.Fetched)
	assert.Equal(t, 1, rep.EndpointGuessing.TotalEndpoints)
	assert.Equal(t, 1, rep.HiddenFileScanning.TotalHiddenFiles)
	assert.True(t, rep.HiddenFileScanning.Enabled)
	assert.False(t, rep.SubdomainEnumeration.Enabled)
}

func TestWriteJSON(t *testing.T) {
	agg := NewAggregator("https://example.com")
	agg.AddPage(PageResult{URL: "https://example.com", StatusCode: 200, Depth: 0})

	path := filepath.Join(t.TempDir(), "crawl_report.json")
	require.NoError(t, WriteJSON(agg.Build(Features{}), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "https://example.com", decoded.CrawlSummary.BaseURL)
	assert.Equal(t, 1, decoded.CrawlSummary.TotalPagesCrawled)
}

func TestWriteSQLite(t *testing.T) {
	agg := NewAggregator("https://example.com")
	agg.AddPage(PageResult{
		URL:        "https://example.com",
		StatusCode: 200,
		Forms:      []extract.Form{loginForm("/login")},
	})
	agg.AddEndpoints("https://example.com/api/users", "https://example.com/other")

	path := filepath.Join(t.TempDir(), "crawl_data.db")
	require.NoError(t, WriteSQLite(agg.Build(Features{}), path))

	db, err := sql.Open("sqlite", path+"?mode=rw")
	require.NoError(t, err)
	defer db.Close()

	var pages int
	require.NoError(t, db.QueryRow("SELECT total_pages FROM crawl_summary").Scan(&pages))
	assert.Equal(t, 1, pages)

	var forms int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM forms").Scan(&forms))
	assert.Equal(t, 1, forms)

	var apiType string
	require.NoError(t, db.QueryRow("SELECT type FROM api_endpoints WHERE endpoint LIKE '%/api/%'").Scan(&apiType))
	assert.Equal(t, "api", apiType)
}
