package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProber() *Prober {
	return NewProber(5*time.Second, "probe-test-agent", 8, nil)
}

func TestGuessEndpointsFindsKnownPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin":
			w.WriteHeader(http.StatusForbidden)
		case "/api":
			w.WriteHeader(http.StatusOK)
		case "/old-page":
			w.Header().Set("Location", "/new-page")
			w.WriteHeader(http.StatusMovedPermanently)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	wordlist := filepath.Join(t.TempDir(), "endpoints.txt")
	require.NoError(t, os.WriteFile(wordlist, []byte("# comment\nadmin\napi\nold-page\nmissing\n\n"), 0o644))

	results, err := newTestProber().GuessEndpoints(context.Background(), srv.URL, wordlist)
	require.NoError(t, err)
	require.Len(t, results, 3, "404 paths are not reported")

	// sorted by status code, then path
	assert.Equal(t, "api", results[0].Path)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
	assert.Equal(t, "old-page", results[1].Path)
	assert.Equal(t, http.StatusMovedPermanently, results[1].StatusCode, "redirects count as found")
	assert.Equal(t, "admin", results[2].Path)
	assert.Equal(t, http.StatusForbidden, results[2].StatusCode, "auth walls count as found")

	for _, result := range results {
		assert.True(t, result.Found)
		assert.Equal(t, http.MethodGet, result.Method)
		assert.NotZero(t, result.Timestamp)
	}
}

func TestScanHiddenFilesSensitivityOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.env":
			_, _ = w.Write([]byte("DB_PASSWORD=hunter2\npassword=admin\n"))
		case "/backup.sql":
			_, _ = w.Write([]byte("-- mysql dump"))
		case "/notes.old":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	wordlist := filepath.Join(t.TempDir(), "hidden.txt")
	require.NoError(t, os.WriteFile(wordlist, []byte("notes.old\nbackup.sql\n.env\nabsent\n"), 0o644))

	files, err := newTestProber().ScanHiddenFiles(context.Background(), srv.URL, wordlist)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, ".env", files[0].Path, "most sensitive first")
	assert.Equal(t, 1, files[0].SensitivityLevel)
	assert.Contains(t, files[0].SensitiveContent, "Password found")
	assert.Contains(t, files[0].ContentPreview, "DB_PASSWORD")

	assert.Equal(t, "backup.sql", files[1].Path)
	assert.Equal(t, 3, files[1].SensitivityLevel)
	assert.Contains(t, files[1].SensitiveContent, "MySQL reference found")

	assert.Equal(t, "notes.old", files[2].Path)
	assert.Equal(t, 4, files[2].SensitivityLevel)
	assert.Empty(t, files[2].ContentPreview, "non-200 responses get no preview")
}

func TestSensitivityLevels(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{".env", 1},
		{".git/config", 1},
		{".ssh/id_rsa", 1},
		{"config.php", 2},
		{"wp-config.php.bak", 2}, // path patterns outrank the .bak suffix
		{"backup.zip", 3},
		{"debug.log", 4},
		{"web.config.bak", 4},
		{"readme.txt", 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SensitivityLevel(tt.path), "path %q", tt.path)
	}
}

func TestLoadWordlistFallback(t *testing.T) {
	words, err := LoadWordlist("", defaultEndpointWords)
	require.NoError(t, err)
	assert.Equal(t, defaultEndpointWords, words)

	_, err = LoadWordlist(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
}

func TestNewProberConcurrencyBound(t *testing.T) {
	assert.EqualValues(t, 2, NewProber(time.Second, "ua", 2, nil).concurrency)
	assert.EqualValues(t, defaultConcurrency, NewProber(time.Second, "ua", 0, nil).concurrency,
		"non-positive falls back to the default")
}

func TestRunHonorsConcurrencyLimit(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	prober := NewProber(5*time.Second, "probe-test-agent", 2, nil)
	words := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	results := prober.run(context.Background(), srv.URL, words, false)

	assert.Len(t, results, len(words))
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxInFlight, 2, "fan-out stays within the configured bound")
}

func TestRunRespectsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newTestProber().run(ctx, srv.URL, []string{"a", "b", "c"}, false)
	assert.Empty(t, results, "cancelled context stops the fan-out")
}
