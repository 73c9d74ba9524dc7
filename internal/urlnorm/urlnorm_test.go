package urlnorm

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQueryOrderInvariance(t *testing.T) {
	a := Normalize("http://h/p?b=2&a=1")
	b := Normalize("http://h/p?a=1&b=2")
	assert.Equal(t, a, b, "parameter order must not affect the canonical form")
}

func TestNormalizeQueryCollapsesRepeatedValues(t *testing.T) {
	assert.Equal(t, Normalize("http://h/p?a=1"), Normalize("http://h/p?a=1&a=1"),
		"repeated identical values collapse so the visited set treats them as one URL")
	assert.Equal(t, "a=1&a=2", NormalizeQuery("a=2&a=1&a=2"), "distinct values per key are kept")
}

func TestNormalizeStripsFragment(t *testing.T) {
	assert.Equal(t, Normalize("http://h/p"), Normalize("http://h/p#frag"))
	assert.Equal(t, "http://h/p", Normalize("http://h/p#frag"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"http://h/p?b=2&a=1",
		"http://h/p#frag",
		"https://example.com/path?z=9&z=1&a=",
		"http://example.com",
		"://not a url at all",
		"",
	}
	for _, raw := range inputs {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", raw)
	}
}

func TestNormalizeMalformedPassesThrough(t *testing.T) {
	raw := "http://exa mple.com/%zz"
	assert.Equal(t, raw, Normalize(raw), "malformed input fails open, unchanged")
}

func TestInScope(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		base        string
		includeSubs bool
		want        bool
	}{
		{"same host", "http://good.com/x", "http://good.com", false, true},
		{"different host", "http://evil.com/x", "http://good.com", false, false},
		{"subdomain without flag", "http://api.good.com/x", "http://good.com", false, false},
		{"subdomain with flag", "http://api.www.good.com/x", "http://www.good.com", true, true},
		{"sibling with flag", "http://mail.good.com/x", "http://www.good.com", true, true},
		{"ftp scheme", "ftp://good.com/x", "http://good.com", false, false},
		{"javascript scheme", "javascript:void(0)", "http://good.com", false, false},
		{"no host", "/relative/only", "http://good.com", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InScope(tt.raw, tt.base, tt.includeSubs))
		})
	}
}

func TestPassesExtensionFilter(t *testing.T) {
	ignored := map[string]struct{}{".png": {}, ".zip": {}}
	focused := map[string]struct{}{".php": {}, ".html": {}}

	assert.False(t, PassesExtensionFilter("http://h/logo.png", ignored, nil))
	assert.False(t, PassesExtensionFilter("http://h/archive.ZIP", ignored, nil), "extension match is case-insensitive on the path")
	assert.True(t, PassesExtensionFilter("http://h/about", ignored, nil))
	assert.True(t, PassesExtensionFilter("http://h/index.php", ignored, focused))
	assert.False(t, PassesExtensionFilter("http://h/about", ignored, focused), "focused set requires a matching suffix")
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("http://example.com/dir/page.html")

	resolved, ok := Resolve(base, "/about")
	assert.True(t, ok)
	assert.Equal(t, "http://example.com/about", resolved)

	resolved, ok = Resolve(base, "other.html")
	assert.True(t, ok)
	assert.Equal(t, "http://example.com/dir/other.html", resolved)

	for _, href := range []string{"", "#top", "javascript:void(0)", "mailto:x@y.z", "data:text/plain,hi"} {
		_, ok := Resolve(base, href)
		assert.False(t, ok, "href %q must be rejected", href)
	}
}
