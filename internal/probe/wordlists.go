package probe

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadWordlist reads candidate paths from a file, one per line, with
// blank lines and # comments skipped. An empty path selects the
// built-in fallback list.
func LoadWordlist(path string, fallback []string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return fallback, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wordlist %s: %w", path, err)
	}
	return words, nil
}

var defaultEndpointWords = []string{
	// API surfaces
	"api", "api/v1", "api/v2", "api/v3", "rest", "rest/v1", "rest/v2",
	"graphql", "swagger", "swagger.json", "openapi", "openapi.json",
	"docs", "documentation", "redoc",

	// Common resources
	"users", "user", "auth", "login", "logout", "register", "signup",
	"admin", "administrator", "manage", "management", "dashboard",
	"profile", "account", "settings", "config", "configuration",
	"posts", "articles", "blog", "news", "products", "items", "catalog",
	"orders", "cart", "checkout", "payment", "billing",
	"files", "upload", "download", "media", "images",
	"search", "query", "filter", "page",

	// Admin and management
	"admin/api", "admin/users", "admin/settings", "admin/dashboard",
	"manage/api", "manage/users", "system", "system/api",

	// Development and testing
	"dev", "development", "test", "testing", "staging", "beta",
	"debug", "console", "log", "logs", "error",

	// Authentication and security
	"auth/api", "auth/login", "auth/logout", "oauth", "oauth2",
	"sso", "saml", "jwt", "token", "security",

	// Data and storage
	"data", "database", "db", "cache", "storage", "backup", "archive",
	"export", "import",

	// Monitoring
	"monitor", "health", "status", "ping", "metrics", "analytics",
	"stats", "report",

	// Communication
	"mail", "email", "notification", "webhook", "message", "support",
	"help", "contact",

	// Deployment
	"git", "deploy", "ci", "build", "release",
}

var defaultHiddenFileWords = []string{
	// Version control
	".git", ".git/config", ".git/HEAD", ".git/index", ".git/logs/HEAD",
	".svn", ".svn/entries", ".svn/wc.db",
	".hg", ".hg/hgrc",

	// Environment and configuration
	".env", ".env.local", ".env.development", ".env.production",
	".env.backup", ".env.old", ".env.bak",
	"config.php", "config.ini", "config.json", "config.xml",
	"settings.php", "settings.ini", "settings.json",
	"database.yml", "application.yml", "wp-config.php",

	// Backups and temp files
	"backup", "backup.zip", "backup.tar.gz", "backup.sql", "backup.old",
	"old", "tmp", "temp", "cache", "logs", "log",

	// Web server files
	".htaccess", ".htpasswd", ".htaccess.bak",
	"web.config", "web.config.bak",
	"robots.txt.bak", "sitemap.xml.bak",

	// Development leftovers
	"debug.php", "debug.log", "test.php", "dev.php",
	"info.php", "phpinfo.php",

	// IDE and editor files
	".vscode/settings.json", ".idea/workspace.xml", ".vimrc",

	// Keys and credentials
	".ssh", ".ssh/id_rsa", ".ssh/authorized_keys",
	"id_rsa", "id_rsa.pub", ".netrc", ".npmrc", ".dockercfg",

	// Dumps and exports
	"dump.sql", "database.sql", "users.sql", "export.csv",
}
