package subenum

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dp2pwn/reconspider/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type crtRecord struct {
	Name string `json:"name_value"`
}

// crtshEnumeration queries the crt.sh certificate-transparency index
// for names issued under the target domain.
func (e *Enumerator) crtshEnumeration(ctx context.Context, discovered *collector) error {
	client := &http.Client{Timeout: 30 * time.Second}
	endpoint := fmt.Sprintf("https://crt.sh/?q=%%25.%s&output=json", e.domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", config.DefaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("crt.sh returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}

	var records []crtRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return fmt.Errorf("decode crt.sh response: %w", err)
	}

	added := 0
	for _, record := range records {
		if record.Name == "" {
			continue
		}
		// name_value packs one certificate's names separated by newlines.
		for _, candidate := range strings.Split(record.Name, "\n") {
			sub := CleanSubdomain(candidate)
			if sub == "" || sub == e.domain {
				continue
			}
			if !strings.HasSuffix(sub, "."+e.domain) {
				continue
			}
			if discovered.add(sub) {
				added++
			}
		}
	}
	e.logf("crt.sh enumeration found %d subdomains", added)
	return nil
}
