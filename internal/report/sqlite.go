package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS crawl_summary (
	id INTEGER PRIMARY KEY,
	base_url TEXT,
	total_pages INTEGER,
	total_forms INTEGER,
	total_endpoints INTEGER,
	total_js_files INTEGER,
	max_depth INTEGER,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS forms (
	id INTEGER PRIMARY KEY,
	action TEXT,
	method TEXT,
	fields TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS api_endpoints (
	id INTEGER PRIMARY KEY,
	endpoint TEXT,
	type TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// WriteSQLite persists the report's summary, forms and endpoints into a
// SQLite database at path, creating the file and schema as needed.
func WriteSQLite(r *Report, path string) error {
	// modernc.org/sqlite connection strings: mode=rwc allows creation.
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary := r.CrawlSummary
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO crawl_summary (base_url, total_pages, total_forms, total_endpoints, total_js_files, max_depth)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		summary.BaseURL, summary.TotalPagesCrawled, summary.TotalFormsFound,
		summary.TotalAPIEndpoints, summary.TotalJSFiles, summary.CrawlDepthReached,
	); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	for _, form := range r.Forms.AllForms {
		fields, err := json.MarshalToString(form.Fields)
		if err != nil {
			return fmt.Errorf("encode form fields: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO forms (action, method, fields) VALUES (?, ?, ?)`,
			form.Action, form.Method, fields,
		); err != nil {
			return fmt.Errorf("insert form: %w", err)
		}
	}

	for _, endpoint := range r.APIEndpoints.AllEndpoints {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO api_endpoints (endpoint, type) VALUES (?, ?)`,
			endpoint, EndpointType(endpoint),
		); err != nil {
			return fmt.Errorf("insert endpoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}
