package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/fwojciec/mcscrape"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ mcscrape.ResultWriter = (*ResultStore)(nil)

// ResultStore records the results of one scrape run. Each store owns a run
// row; writing the same URL twice within a run replaces the earlier row.
type ResultStore struct {
	db    *DB
	runID string
}

// NewResultStore starts a new run in db.
func NewResultStore(ctx context.Context, db *DB) (*ResultStore, error) {
	s := &ResultStore{db: db, runID: uuid.New().String()}
	_, err := db.ExecContext(ctx, "INSERT INTO runs (id, started_at) VALUES (?, ?)",
		s.runID, formatTime(time.Now()))
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "creating run: %v", err)
	}
	return s, nil
}

// RunID returns the ID of the run this store writes to.
func (s *ResultStore) RunID() string {
	return s.runID
}

// WriteResult implements mcscrape.ResultWriter.
func (s *ResultStore) WriteResult(ctx context.Context, result *mcscrape.ScrapeResult) error {
	links := result.Links
	if links == nil {
		links = []mcscrape.ExtractedLink{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "encoding links: %v", err)
	}
	metadataJSON, err := json.Marshal(result.Metadata)
	if err != nil {
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "encoding metadata: %v", err)
	}

	var title string
	if result.Metadata != nil && result.Metadata.Title != nil {
		title = *result.Metadata.Title
	}
	var errKind, errStage, errMessage string
	if result.Error != nil {
		errKind = result.Error.Kind
		errStage = string(result.Error.Stage)
		errMessage = result.Error.Message
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (id, run_id, url, final_url, status_code, stage, title,
			content_html, content_markdown, content_hash, links, metadata,
			error_kind, error_stage, error_message, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, url) DO UPDATE SET
			final_url = excluded.final_url,
			status_code = excluded.status_code,
			stage = excluded.stage,
			title = excluded.title,
			content_html = excluded.content_html,
			content_markdown = excluded.content_markdown,
			content_hash = excluded.content_hash,
			links = excluded.links,
			metadata = excluded.metadata,
			error_kind = excluded.error_kind,
			error_stage = excluded.error_stage,
			error_message = excluded.error_message,
			fetched_at = excluded.fetched_at
	`, uuid.New().String(), s.runID, result.URL, result.FinalURL, result.StatusCode,
		string(result.Stage), title, result.MainContentHTML, result.MainContentMarkdown,
		result.ContentHash, string(linksJSON), string(metadataJSON),
		errKind, errStage, errMessage, formatTime(result.FetchedAt))
	if err != nil {
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "storing result for %s: %v", result.URL, err)
	}
	return nil
}

// ResultFilter selects stored results. Nil fields match everything.
type ResultFilter struct {
	RunID  *string
	URL    *string
	Failed *bool

	Limit  int
	Offset int
}

// FindResults returns stored results ordered by URL. Node trees and outlines
// are not stored, so those fields are always empty.
func (s *ResultStore) FindResults(ctx context.Context, filter ResultFilter) ([]*mcscrape.ScrapeResult, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT url, final_url, status_code, stage, content_html, content_markdown,
		content_hash, links, metadata, error_kind, error_stage, error_message, fetched_at
		FROM results WHERE 1=1`)

	if filter.RunID != nil {
		query.WriteString(" AND run_id = ?")
		args = append(args, *filter.RunID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}
	if filter.Failed != nil {
		if *filter.Failed {
			query.WriteString(" AND error_kind != ''")
		} else {
			query.WriteString(" AND error_kind = ''")
		}
	}
	query.WriteString(" ORDER BY url ASC, run_id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "querying results: %v", err)
	}
	defer rows.Close()

	var results []*mcscrape.ScrapeResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResult(rows *sql.Rows) (*mcscrape.ScrapeResult, error) {
	var r mcscrape.ScrapeResult
	var stage, links, metadata, errKind, errStage, errMessage, fetchedAt string

	if err := rows.Scan(&r.URL, &r.FinalURL, &r.StatusCode, &stage, &r.MainContentHTML,
		&r.MainContentMarkdown, &r.ContentHash, &links, &metadata,
		&errKind, &errStage, &errMessage, &fetchedAt); err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "scanning result: %v", err)
	}

	r.Stage = mcscrape.Stage(stage)
	if err := json.Unmarshal([]byte(links), &r.Links); err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "decoding links: %v", err)
	}
	if err := json.Unmarshal([]byte(metadata), &r.Metadata); err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "decoding metadata: %v", err)
	}
	if errKind != "" {
		r.Error = &mcscrape.ErrorInfo{Kind: errKind, Stage: mcscrape.Stage(errStage), Message: errMessage}
	}

	var err error
	r.FetchedAt, err = parseTime(fetchedAt, "fetched_at")
	if err != nil {
		return nil, err
	}
	return &r, nil
}
