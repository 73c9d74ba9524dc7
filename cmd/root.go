// Package cmd wires the command-line surface to a crawl run.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dp2pwn/reconspider/core"
	"github.com/dp2pwn/reconspider/internal/config"
	"github.com/dp2pwn/reconspider/internal/logging"
	"github.com/dp2pwn/reconspider/internal/report"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     core.CLIName + " [flags] <target-url>",
		Short:   "Reconnaissance web crawler for authorized security assessments",
		Long:    "Reconnaissance web crawler for authorized security assessments - " + core.VERSION,
		Version: core.VERSION,
		Args:    cobra.ExactArgs(1),
		RunE:    runRoot,
	}
	registerFlags(cmd)
	cmd.SilenceUsage = true
	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	debug, _ := flags.GetBool("debug")
	verbose, _ := flags.GetBool("verbose")
	quiet, _ := flags.GetBool("quiet")
	logging.Configure(core.Logger, logging.Options{Debug: debug, Verbose: verbose, Quiet: quiet})

	cfg, err := buildConfig(flags, args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	core.Logger.Infof("Starting crawl of %s", cfg.BaseURL)

	crawler, err := core.NewCrawler(cfg, core.Logger)
	if err != nil {
		return err
	}

	rep, err := crawler.Run(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		core.Logger.Warnf("Interrupted after %s; writing partial report", time.Since(started).Round(time.Second))
	}

	return writeReport(rep, cfg)
}

// buildConfig layers the run parameters: defaults, then the config
// file, then any flag the user set explicitly.
func buildConfig(flags *pflag.FlagSet, target string) (*config.CrawlConfig, error) {
	cfg := config.Default()
	if path, _ := flags.GetString("config"); strings.TrimSpace(path) != "" {
		loaded, err := config.FromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.Changed("max-depth") {
		cfg.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages, _ = flags.GetInt("max-pages")
	}
	if flags.Changed("delay") {
		seconds, _ := flags.GetFloat64("delay")
		cfg.Delay = time.Duration(seconds * float64(time.Second))
	}
	if flags.Changed("concurrent") {
		cfg.Concurrent, _ = flags.GetInt("concurrent")
	}
	if flags.Changed("timeout") {
		seconds, _ := flags.GetFloat64("timeout")
		cfg.Timeout = time.Duration(seconds * float64(time.Second))
	}
	if flags.Changed("respect-robots") {
		cfg.RespectRobots, _ = flags.GetBool("respect-robots")
	}
	if flags.Changed("override-robots") {
		cfg.OverrideRobots, _ = flags.GetBool("override-robots")
	}
	if flags.Changed("include-subdomains") {
		cfg.IncludeSubdomains, _ = flags.GetBool("include-subdomains")
	}
	if flags.Changed("browser") {
		cfg.UseBrowser, _ = flags.GetBool("browser")
	}
	if flags.Changed("headless") {
		cfg.Headless, _ = flags.GetBool("headless")
	}
	if flags.Changed("require-browser") {
		cfg.RequireBrowser, _ = flags.GetBool("require-browser")
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("output-format") {
		format, _ := flags.GetString("output-format")
		cfg.OutputFormat = config.OutputFormat(strings.ToLower(strings.TrimSpace(format)))
	}
	if flags.Changed("output") {
		cfg.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("enable-subdomain-enum") {
		cfg.EnableSubdomainEnum, _ = flags.GetBool("enable-subdomain-enum")
	}
	if flags.Changed("enable-endpoint-guessing") {
		cfg.EnableEndpointGuessing, _ = flags.GetBool("enable-endpoint-guessing")
	}
	if flags.Changed("enable-hidden-file-scan") {
		cfg.EnableHiddenFileScan, _ = flags.GetBool("enable-hidden-file-scan")
	}
	if flags.Changed("enable-js-analysis") {
		cfg.EnableJSAnalysis, _ = flags.GetBool("enable-js-analysis")
	}
	if flags.Changed("subdomain-methods") {
		cfg.SubdomainMethods, _ = flags.GetStringSlice("subdomain-methods")
	}
	if flags.Changed("subdomain-wordlist") {
		cfg.SubdomainWordlist, _ = flags.GetString("subdomain-wordlist")
	}
	if flags.Changed("endpoint-wordlist") {
		cfg.EndpointWordlist, _ = flags.GetString("endpoint-wordlist")
	}
	if flags.Changed("hidden-file-wordlist") {
		cfg.HiddenFileWordlist, _ = flags.GetString("hidden-file-wordlist")
	}

	if headers, _ := flags.GetStringArray("header"); len(headers) > 0 {
		for _, header := range headers {
			name, value, ok := splitPair(header, ":")
			if !ok {
				return nil, fmt.Errorf("invalid header %q (expected Name: Value)", header)
			}
			cfg.CustomHeaders[name] = value
		}
	}
	if cookie, _ := flags.GetString("cookie"); strings.TrimSpace(cookie) != "" {
		for _, pair := range strings.Split(cookie, ";") {
			name, value, ok := splitPair(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid cookie %q (expected name=value)", pair)
			}
			cfg.AuthCookies[name] = value
		}
	}

	cfg.BaseURL = normalizeTarget(target)
	if err := cfg.Clamp(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func normalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	if !strings.Contains(target, "://") {
		return "https://" + target
	}
	return target
}

func splitPair(raw, sep string) (string, string, bool) {
	parts := strings.SplitN(raw, sep, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	name := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

func writeReport(rep *report.Report, cfg *config.CrawlConfig) error {
	if cfg.OutputFormat == config.OutputJSON || cfg.OutputFormat == config.OutputBoth {
		path := outputPath(cfg.OutputFile, ".json", "crawl_report.json")
		if err := report.WriteJSON(rep, path); err != nil {
			return err
		}
		core.Logger.Infof("Report saved to %s", path)
	}
	if cfg.OutputFormat == config.OutputDB || cfg.OutputFormat == config.OutputBoth {
		path := outputPath(cfg.OutputFile, ".db", "crawl_data.db")
		if err := report.WriteSQLite(rep, path); err != nil {
			return err
		}
		core.Logger.Infof("Database saved to %s", path)
	}
	return nil
}

// outputPath derives the destination for one output format from the
// user-supplied base path, falling back to the conventional name.
func outputPath(base, ext, fallback string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return fallback
	}
	if strings.HasSuffix(strings.ToLower(base), ext) {
		return base
	}
	return base + ext
}

func registerFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.IntP("max-depth", "d", config.DefaultMaxDepth, "Maximum crawl depth from the base URL")
	flags.IntP("max-pages", "p", config.DefaultMaxPages, "Maximum number of pages to crawl (failed fetches count)")
	flags.Float64P("delay", "k", 1.0, "Delay between requests in seconds")
	flags.IntP("concurrent", "c", config.DefaultConcurrent, "Maximum concurrent probe requests")
	flags.Float64P("timeout", "m", 30.0, "Request timeout in seconds")

	flags.Bool("respect-robots", true, "Honor robots.txt disallow rules")
	flags.Bool("override-robots", false, "Skip robots.txt entirely (takes precedence over --respect-robots)")
	flags.BoolP("include-subdomains", "w", false, "Treat subdomains of the target as in scope")

	flags.Bool("browser", true, "Render pages in a headless browser (falls back to HTTP on failure)")
	flags.Bool("headless", true, "Run the browser headless")
	flags.Bool("require-browser", false, "Fail the run instead of falling back when the browser cannot start")

	flags.StringP("user-agent", "u", config.DefaultUserAgent, "User-Agent header to send")
	flags.StringArrayP("header", "H", []string{}, "Extra header to send (Name: Value, repeatable)")
	flags.String("cookie", "", "Cookies to send (name=value; name2=value2)")

	flags.String("output-format", string(config.OutputBoth), "Report output: json, db or both")
	flags.StringP("output", "o", "", "Output file base path (extension added per format)")
	flags.String("config", "", "JSON configuration file")

	flags.Bool("enable-subdomain-enum", false, "Enumerate subdomains before crawling")
	flags.Bool("enable-endpoint-guessing", false, "Probe common endpoint paths before crawling")
	flags.Bool("enable-hidden-file-scan", false, "Probe for exposed sensitive files before crawling")
	flags.Bool("enable-js-analysis", false, "Download and analyze JavaScript files for endpoints")

	flags.StringSlice("subdomain-methods", []string{"dns", "wordlist", "crtsh"}, "Subdomain enumeration methods")
	flags.String("subdomain-wordlist", "", "Subdomain wordlist file (built-in list when empty)")
	flags.String("endpoint-wordlist", "", "Endpoint wordlist file (built-in list when empty)")
	flags.String("hidden-file-wordlist", "", "Hidden-file wordlist file (built-in list when empty)")

	flags.Bool("debug", false, "Turn on debug logging")
	flags.BoolP("verbose", "v", false, "Turn on verbose logging")
	flags.BoolP("quiet", "q", false, "Suppress log output")

	flags.SortFlags = false
}
