package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>  Login Portal  </title>
  <meta name="csrf-token" content="meta-tok-123">
  <script src="/assets/app.js"></script>
  <script src="https://cdn.example.com/vendor.min.js"></script>
  <script src="/assets/styles.css"></script>
</head>
<body>
  <a href="/about">About</a>
  <a href="/about#team">Team</a>
  <a href="contact.html">Contact</a>
  <a href="http://other.com/external">External</a>
  <a href="javascript:void(0)">Noop</a>
  <a href="/files/report.pdf">Report</a>

  <form action="/login" method="post">
    <input type="text" name="username">
    <input type="password" name="password" value="">
    <input type="hidden" name="csrf_token" value="tok-abc" id="csrf">
    <textarea name="notes">hello</textarea>
    <select name="role">
      <option value="user">User</option>
      <option value="admin" selected>Admin</option>
    </select>
  </form>

  <form>
    <input name="q">
  </form>

  <script>
    fetch("/api/v2/users");
    axios.post("/v1/sessions");
    const legacy = "/rest/items/all";
  </script>
</body>
</html>`

func sampleOptions() Options {
	return Options{
		BaseURL:           "http://example.com",
		IncludeSubdomains: false,
		IgnoredExtensions: map[string]struct{}{".pdf": {}},
	}
}

func TestExtractLinksInScopeOnly(t *testing.T) {
	artifacts := Extract(samplePage, "http://example.com/dir/page.html", sampleOptions())

	assert.Contains(t, artifacts.Links, "http://example.com/about")
	assert.Contains(t, artifacts.Links, "http://example.com/dir/contact.html")
	assert.NotContains(t, artifacts.Links, "http://other.com/external", "out-of-scope host")
	assert.NotContains(t, artifacts.Links, "http://example.com/files/report.pdf", "ignored extension")

	// /about and /about#team normalize to the same link
	count := 0
	for _, link := range artifacts.Links {
		if link == "http://example.com/about" {
			count++
		}
	}
	assert.Equal(t, 1, count, "fragment variants collapse to one link")
}

func TestExtractForms(t *testing.T) {
	artifacts := Extract(samplePage, "http://example.com/", sampleOptions())
	require.Len(t, artifacts.Forms, 2)

	login := artifacts.Forms[0]
	assert.Equal(t, "/login", login.Action)
	assert.Equal(t, "POST", login.Method, "method is upper-cased")
	require.Len(t, login.Fields, 5)
	assert.Equal(t, Field{Type: "text", Name: "username", Value: ""}, login.Fields[0])
	assert.Equal(t, Field{Type: "hidden", Name: "csrf_token", Value: "tok-abc"}, login.Fields[2])
	assert.Equal(t, Field{Type: "textarea", Name: "notes", Value: "hello"}, login.Fields[3])
	assert.Equal(t, Field{Type: "select", Name: "role", Value: "admin"}, login.Fields[4])

	search := artifacts.Forms[1]
	assert.Equal(t, "", search.Action, "missing action stays empty (same-page)")
	assert.Equal(t, "GET", search.Method, "missing method defaults to GET")
	require.Len(t, search.Fields, 1)
	assert.Equal(t, "text", search.Fields[0].Type, "missing type defaults to text")
}

func TestExtractScriptsAndEndpoints(t *testing.T) {
	artifacts := Extract(samplePage, "http://example.com/", sampleOptions())

	assert.Contains(t, artifacts.JSFiles, "http://example.com/assets/app.js")
	assert.Contains(t, artifacts.JSFiles, "https://cdn.example.com/vendor.min.js")
	assert.NotContains(t, artifacts.JSFiles, "http://example.com/assets/styles.css")

	assert.Contains(t, artifacts.APIEndpoints, "/api/v2/users")
	assert.Contains(t, artifacts.APIEndpoints, "/v1/sessions")
	assert.Contains(t, artifacts.APIEndpoints, "/rest/items/all")
}

func TestExtractHiddenFieldsAndTokens(t *testing.T) {
	artifacts := Extract(samplePage, "http://example.com/", sampleOptions())

	require.Len(t, artifacts.HiddenFields, 1)
	assert.Equal(t, HiddenField{Name: "csrf_token", Value: "tok-abc", ID: "csrf"}, artifacts.HiddenFields[0])

	assert.Contains(t, artifacts.CSRFTokens, "tok-abc", "input with csrf in its name")
	assert.Contains(t, artifacts.CSRFTokens, "meta-tok-123", "meta with csrf in its name")
}

func TestExtractTitle(t *testing.T) {
	artifacts := Extract(samplePage, "http://example.com/", sampleOptions())
	assert.Equal(t, "Login Portal", artifacts.Title)
}

func TestExtractMalformedHTMLIsIsolated(t *testing.T) {
	broken := `<html><form action="/a" method="POST"><input name="x"><form><a href="/ok">ok</a>`
	artifacts := Extract(broken, "http://example.com/", sampleOptions())
	assert.NotEmpty(t, artifacts.Forms, "parser recovers what it can")
	assert.Contains(t, artifacts.Links, "http://example.com/ok")
}
