package probe

import (
	"context"
	"regexp"
	"sort"
)

// HiddenFile is a positive hidden-file probe with its severity ranking
// and any sensitive-content markers seen in the response preview.
type HiddenFile struct {
	Result
	SensitivityLevel int      `json:"sensitivity_level"`
	SensitiveContent []string `json:"sensitive_content,omitempty"`
}

// sensitivityPatterns rank paths by how damaging exposure would be;
// 1 is most sensitive, 5 is informational. First match wins.
var sensitivityPatterns = []struct {
	pattern *regexp.Regexp
	level   int
}{
	{regexp.MustCompile(`(?i)\.env`), 1},
	{regexp.MustCompile(`(?i)\.git`), 1},
	{regexp.MustCompile(`(?i)\.ssh`), 1},
	{regexp.MustCompile(`(?i)config\.php`), 2},
	{regexp.MustCompile(`(?i)wp-config`), 2},
	{regexp.MustCompile(`(?i)backup`), 3},
	{regexp.MustCompile(`(?i)\.log`), 4},
	{regexp.MustCompile(`(?i)\.bak`), 4},
	{regexp.MustCompile(`(?i)\.old`), 4},
}

var sensitiveContentMarkers = []struct {
	pattern     *regexp.Regexp
	description string
}{
	{regexp.MustCompile(`(?i)password\s*=`), "Password found"},
	{regexp.MustCompile(`(?i)secret\s*=`), "Secret found"},
	{regexp.MustCompile(`(?i)api_key\s*=`), "API key found"},
	{regexp.MustCompile(`(?i)token\s*=`), "Token found"},
	{regexp.MustCompile(`(?i)database\s*=`), "Database config found"},
	{regexp.MustCompile(`(?i)private_key`), "Private key found"},
	{regexp.MustCompile(`(?i)mysql`), "MySQL reference found"},
	{regexp.MustCompile(`(?i)postgresql`), "PostgreSQL reference found"},
	{regexp.MustCompile(`(?i)redis`), "Redis reference found"},
	{regexp.MustCompile(`(?i)aws`), "AWS reference found"},
}

// ScanHiddenFiles probes for exposed dotfiles, backups and other
// sensitive resources. Results are sorted by sensitivity level, then
// status code.
func (p *Prober) ScanHiddenFiles(ctx context.Context, baseURL, wordlistPath string) ([]HiddenFile, error) {
	words, err := LoadWordlist(wordlistPath, defaultHiddenFileWords)
	if err != nil {
		return nil, err
	}
	if p.logger != nil {
		p.logger.Infof("Scanning for hidden files on %s with %d patterns", baseURL, len(words))
	}

	raw := p.run(ctx, baseURL, words, true)

	files := make([]HiddenFile, 0, len(raw))
	for _, result := range raw {
		files = append(files, HiddenFile{
			Result:           result,
			SensitivityLevel: SensitivityLevel(result.Path),
			SensitiveContent: sensitiveContent(result.ContentPreview),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].SensitivityLevel != files[j].SensitivityLevel {
			return files[i].SensitivityLevel < files[j].SensitivityLevel
		}
		return files[i].StatusCode < files[j].StatusCode
	})
	return files, nil
}

// SensitivityLevel ranks a path from 1 (critical) to 5 (info).
func SensitivityLevel(path string) int {
	for _, entry := range sensitivityPatterns {
		if entry.pattern.MatchString(path) {
			return entry.level
		}
	}
	return 5
}

func sensitiveContent(preview string) []string {
	if preview == "" {
		return nil
	}
	var found []string
	for _, marker := range sensitiveContentMarkers {
		if marker.pattern.MatchString(preview) {
			found = append(found, marker.description)
		}
	}
	return found
}
