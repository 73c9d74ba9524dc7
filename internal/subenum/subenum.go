// Package subenum discovers subdomains of a target domain through DNS
// records, wordlist resolution and certificate-transparency logs. Each
// method is best-effort: a failing method logs and contributes nothing,
// it never fails the enumeration.
package subenum

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"

	"github.com/dp2pwn/reconspider/internal/probe"
	"github.com/dp2pwn/reconspider/stringset"
)

// collector gathers discovered names, case-insensitively deduplicated
// in insertion order.
type collector struct {
	filter *stringset.StringFilter
	subs   []string
}

func newCollector() *collector {
	return &collector{filter: stringset.NewStringFilter()}
}

// add records sub and reports whether it was new.
func (c *collector) add(sub string) bool {
	if c.filter.Duplicate(sub) {
		return false
	}
	c.subs = append(c.subs, sub)
	return true
}

// Result is the compiled output of one enumeration pass.
type Result struct {
	Domain          string              `json:"domain"`
	TotalSubdomains int                 `json:"total_subdomains"`
	Subdomains      []string            `json:"subdomains"`
	SubdomainLevels map[string][]string `json:"subdomain_levels"`
	MethodsUsed     []string            `json:"methods_used"`
}

type Enumerator struct {
	domain   string
	resolver *net.Resolver
	timeout  time.Duration
	logger   *logrus.Logger
}

func New(domain string, logger *logrus.Logger) *Enumerator {
	return &Enumerator{
		domain:   strings.ToLower(strings.TrimSpace(domain)),
		resolver: net.DefaultResolver,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// Enumerate runs the requested methods (dns, wordlist, crtsh) and
// compiles the union of their findings.
func (e *Enumerator) Enumerate(ctx context.Context, methods []string, wordlistPath string) *Result {
	if len(methods) == 0 {
		methods = []string{"dns", "wordlist", "crtsh"}
	}

	discovered := newCollector()
	var used []string

	for _, method := range methods {
		if ctx.Err() != nil {
			break
		}
		switch strings.ToLower(strings.TrimSpace(method)) {
		case "dns":
			e.dnsEnumeration(ctx, discovered)
			used = append(used, "dns")
		case "wordlist":
			if err := e.wordlistEnumeration(ctx, wordlistPath, discovered); err != nil {
				e.logf("wordlist enumeration failed: %v", err)
				continue
			}
			used = append(used, "wordlist")
		case "crtsh":
			if err := e.crtshEnumeration(ctx, discovered); err != nil {
				e.logf("crt.sh enumeration failed: %v", err)
				continue
			}
			used = append(used, "crtsh")
		default:
			e.logf("unknown enumeration method %q skipped", method)
		}
	}

	return e.compile(discovered, used)
}

// dnsEnumeration collects host targets from the apex records. Lookup
// failures per record type are expected and skipped.
func (e *Enumerator) dnsEnumeration(ctx context.Context, discovered *collector) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	record := func(host string) {
		sub := CleanSubdomain(host)
		if sub == "" || sub == e.domain {
			return
		}
		if strings.HasSuffix(sub, "."+e.domain) {
			discovered.add(sub)
		}
	}

	if cname, err := e.resolver.LookupCNAME(ctx, e.domain); err == nil {
		record(cname)
	}
	if mxs, err := e.resolver.LookupMX(ctx, e.domain); err == nil {
		for _, mx := range mxs {
			record(mx.Host)
		}
	}
	if nss, err := e.resolver.LookupNS(ctx, e.domain); err == nil {
		for _, ns := range nss {
			record(ns.Host)
		}
	}
	if txts, err := e.resolver.LookupTXT(ctx, e.domain); err == nil {
		for _, txt := range txts {
			for _, candidate := range txtHostCandidates(txt) {
				record(candidate)
			}
		}
	}
}

// txtHostCandidates pulls hostname-shaped tokens out of one TXT record.
// SPF mechanisms like include:mail.example.com carry their host after
// the last colon; whether a token actually belongs to the target domain
// is decided by the caller.
func txtHostCandidates(txt string) []string {
	var candidates []string
	for _, field := range strings.Fields(txt) {
		field = strings.Trim(field, ",;\"")
		if idx := strings.LastIndex(field, ":"); idx >= 0 {
			field = field[idx+1:]
		}
		if field == "" || !strings.Contains(field, ".") {
			continue
		}
		candidates = append(candidates, field)
	}
	return candidates
}

// wordlistEnumeration resolves <word>.<domain> for every candidate and
// keeps the names that answer.
func (e *Enumerator) wordlistEnumeration(ctx context.Context, wordlistPath string, discovered *collector) error {
	words, err := probe.LoadWordlist(wordlistPath, defaultSubdomainWords)
	if err != nil {
		return err
	}

	found := 0
	for _, word := range words {
		if ctx.Err() != nil {
			break
		}
		candidate := word + "." + e.domain
		if discovered.filter.Contains(candidate) {
			continue
		}
		lookupCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		addrs, err := e.resolver.LookupHost(lookupCtx, candidate)
		cancel()
		if err != nil || len(addrs) == 0 {
			continue
		}
		if discovered.add(candidate) {
			found++
		}
	}
	e.logf("wordlist enumeration found %d subdomains", found)
	return nil
}

func (e *Enumerator) compile(discovered *collector, used []string) *Result {
	subdomains := append([]string(nil), discovered.subs...)
	sort.Strings(subdomains)

	return &Result{
		Domain:          e.domain,
		TotalSubdomains: len(subdomains),
		Subdomains:      subdomains,
		SubdomainLevels: GroupByLevel(subdomains),
		MethodsUsed:     used,
	}
}

// GroupByLevel buckets subdomains by everything left of the registrable
// domain. Names whose registrable domain cannot be derived fall back to
// a simple last-two-labels split.
func GroupByLevel(subdomains []string) map[string][]string {
	levels := make(map[string][]string)
	for _, sub := range subdomains {
		level := subdomainLevel(sub)
		if level == "" {
			continue
		}
		levels[level] = append(levels[level], sub)
	}
	return levels
}

func subdomainLevel(sub string) string {
	registrable, err := publicsuffix.EffectiveTLDPlusOne(sub)
	if err == nil && registrable != sub {
		return strings.TrimSuffix(sub, "."+registrable)
	}
	if err == nil {
		return ""
	}
	parts := strings.Split(sub, ".")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], ".")
}

// CleanSubdomain normalizes a raw candidate name: lower-cased, trailing
// dot and certificate wildcards stripped. Anything that still does not
// look like a hostname is rejected.
func CleanSubdomain(raw string) string {
	sub := strings.ToLower(strings.TrimSpace(raw))
	sub = strings.TrimSuffix(sub, ".")
	sub = strings.TrimPrefix(sub, "*.")
	if sub == "" || strings.ContainsAny(sub, " /\\@:") {
		return ""
	}
	return sub
}

func (e *Enumerator) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debugf(format, args...)
	}
}

var defaultSubdomainWords = []string{
	"www", "mail", "ftp", "admin", "blog", "dev", "test", "staging",
	"api", "cdn", "static", "assets", "img", "images", "media",
	"mobile", "m", "app", "apps", "web", "www2", "ns1", "ns2",
	"dns", "smtp", "pop", "imap", "webmail",
	"support", "help", "kb", "wiki", "forum", "community",
	"shop", "store", "cart", "checkout", "payment", "billing",
	"secure", "ssl", "vpn", "remote", "ssh",
	"monitor", "status", "health", "metrics", "stats",
	"backup", "archive", "old", "legacy", "beta", "alpha",
	"demo", "sandbox", "lab", "research",
	"corp", "internal", "intranet", "portal", "gateway",
	"proxy", "cache", "lb", "router", "fw", "dmz", "ext", "public",
}
