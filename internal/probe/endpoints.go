package probe

import (
	"context"
	"sort"
)

// GuessEndpoints probes the wordlist (or the built-in default) against
// baseURL and returns the discovered endpoints sorted by status code,
// then path.
func (p *Prober) GuessEndpoints(ctx context.Context, baseURL, wordlistPath string) ([]Result, error) {
	words, err := LoadWordlist(wordlistPath, defaultEndpointWords)
	if err != nil {
		return nil, err
	}
	if p.logger != nil {
		p.logger.Infof("Guessing endpoints on %s with %d candidates", baseURL, len(words))
	}

	results := p.run(ctx, baseURL, words, false)

	sort.Slice(results, func(i, j int) bool {
		if results[i].StatusCode != results[j].StatusCode {
			return results[i].StatusCode < results[j].StatusCode
		}
		return results[i].Path < results[j].Path
	})
	return results, nil
}
