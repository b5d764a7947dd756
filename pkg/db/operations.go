package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dtnitsch/site-indexer/models"
)

// DocumentRecord is the ledger view of one uploaded search document.
type DocumentRecord struct {
	ArticleID  string
	Env        string
	URL        string
	FileName   string
	Title      string
	JSONPath   string
	UploadedAt time.Time
	DeletedAt  time.Time
}

// AccessStats summarizes fetch attempts for a site.
type AccessStats struct {
	Succeeded int
	Failed    int
	Rendered  int
}

func fromUnix(v sql.NullInt64) time.Time {
	if !v.Valid || v.Int64 == 0 {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0)
}

// InsertURL registers a page URL for a site, returning its url_id.
// Known URLs return the existing id; the file name is refreshed.
func (db *DB) InsertURL(site, rawURL, fileName string) (int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	var existingID int64
	err = db.QueryRow("SELECT url_id FROM urls WHERE site = ? AND original_url = ?", site, rawURL).Scan(&existingID)
	if err == nil {
		if _, err := db.Exec("UPDATE urls SET file_name = ? WHERE url_id = ?", fileName, existingID); err != nil {
			return 0, fmt.Errorf("failed to update URL: %w", err)
		}
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing URL: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO urls (site, original_url, domain, path, file_name, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, site, rawURL, parsed.Host, parsed.Path, fileName, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert URL: %w", err)
	}

	urlID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}
	return urlID, nil
}

// RecordAccess records a fetch attempt.
func (db *DB) RecordAccess(urlID int64, statusCode int, errorType string, rendered, success bool) error {
	_, err := db.Exec(`
		INSERT INTO url_accesses (url_id, accessed_at, status_code, error_type, rendered, success)
		VALUES (?, ?, ?, ?, ?, ?)
	`, urlID, time.Now().Unix(), statusCode, errorType, rendered, success)
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

// AccessStats counts fetch attempts for a site.
func (db *DB) AccessStats(site string) (AccessStats, error) {
	var s AccessStats
	err := db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN a.success THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN a.success THEN 0 ELSE 1 END), 0),
			COALESCE(SUM(CASE WHEN a.rendered THEN 1 ELSE 0 END), 0)
		FROM url_accesses a JOIN urls u ON u.url_id = a.url_id
		WHERE u.site = ?
	`, site).Scan(&s.Succeeded, &s.Failed, &s.Rendered)
	if err != nil {
		return s, fmt.Errorf("failed to count accesses: %w", err)
	}
	return s, nil
}

// UpsertPage stores the latest scrape result for a page.
func (db *DB) UpsertPage(site string, page models.Page, contentHash string) error {
	urlID, err := db.InsertURL(site, page.URL, page.FileName)
	if err != nil {
		return err
	}

	scrapedAt := page.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	_, err = db.Exec(`
		INSERT INTO pages (url_id, title, excerpt, language, content_hash, size_bytes, rendered, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url_id) DO UPDATE SET
			title = excluded.title,
			excerpt = excluded.excerpt,
			language = excluded.language,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			rendered = excluded.rendered,
			scraped_at = excluded.scraped_at
	`, urlID, page.Title, page.Excerpt, page.Language, contentHash, page.SizeBytes, page.Rendered, scrapedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

const pageColumns = `
	u.original_url, u.file_name, COALESCE(p.title, ''), COALESCE(p.excerpt, ''),
	COALESCE(p.language, ''), COALESCE(p.size_bytes, 0), p.rendered, p.scraped_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*models.Page, error) {
	var p models.Page
	var scrapedAt sql.NullInt64
	err := row.Scan(&p.URL, &p.FileName, &p.Title, &p.Excerpt, &p.Language, &p.SizeBytes, &p.Rendered, &scrapedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	p.ScrapedAt = fromUnix(scrapedAt)
	return &p, nil
}

// PageByURL returns the scraped page for a URL, or ErrNotFound.
func (db *DB) PageByURL(site, rawURL string) (*models.Page, error) {
	return scanPage(db.QueryRow(`SELECT`+pageColumns+`
		FROM pages p JOIN urls u ON u.url_id = p.url_id
		WHERE u.site = ? AND u.original_url = ?`, site, rawURL))
}

// PageByFile returns the scraped page stored under a file stem, or ErrNotFound.
func (db *DB) PageByFile(site, fileName string) (*models.Page, error) {
	return scanPage(db.QueryRow(`SELECT`+pageColumns+`
		FROM pages p JOIN urls u ON u.url_id = p.url_id
		WHERE u.site = ? AND u.file_name = ?
		ORDER BY p.scraped_at DESC LIMIT 1`, site, fileName))
}

// Pages lists every scraped page of a site, ordered by URL.
func (db *DB) Pages(site string) ([]models.Page, error) {
	rows, err := db.Query(`SELECT`+pageColumns+`
		FROM pages p JOIN urls u ON u.url_id = p.url_id
		WHERE u.site = ?
		ORDER BY u.original_url`, site)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// PageHash returns the content hash of the last scrape, or ErrNotFound.
func (db *DB) PageHash(site, rawURL string) (string, error) {
	var hash string
	err := db.QueryRow(`
		SELECT p.content_hash FROM pages p JOIN urls u ON u.url_id = p.url_id
		WHERE u.site = ? AND u.original_url = ?
	`, site, rawURL).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read page hash: %w", err)
	}
	return hash, nil
}

// RecordDocument stores an upload. Re-uploading the same article clears
// any earlier deletion.
func (db *DB) RecordDocument(site string, doc DocumentRecord) error {
	urlID, err := db.InsertURL(site, doc.URL, doc.FileName)
	if err != nil {
		return err
	}

	uploadedAt := doc.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	_, err = db.Exec(`
		INSERT INTO documents (url_id, env, article_id, title, json_path, uploaded_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(env, article_id) DO UPDATE SET
			url_id = excluded.url_id,
			title = excluded.title,
			json_path = excluded.json_path,
			uploaded_at = excluded.uploaded_at,
			deleted_at = NULL
	`, urlID, doc.Env, doc.ArticleID, doc.Title, doc.JSONPath, uploadedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record document: %w", err)
	}
	return nil
}

// MarkDeleted flags one document as removed from the index.
func (db *DB) MarkDeleted(env, articleID string) error {
	res, err := db.Exec(`
		UPDATE documents SET deleted_at = ? WHERE env = ? AND article_id = ?
	`, time.Now().Unix(), env, articleID)
	if err != nil {
		return fmt.Errorf("failed to mark document deleted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Documents lists a site's documents for env. Deleted ones are included
// only when withDeleted is set.
func (db *DB) Documents(site, env string, withDeleted bool) ([]DocumentRecord, error) {
	query := `
		SELECT d.article_id, d.env, u.original_url, u.file_name, COALESCE(d.title, ''),
			COALESCE(d.json_path, ''), d.uploaded_at, d.deleted_at
		FROM documents d JOIN urls u ON u.url_id = d.url_id
		WHERE u.site = ? AND d.env = ?`
	if !withDeleted {
		query += ` AND d.deleted_at IS NULL`
	}
	query += ` ORDER BY u.original_url`

	rows, err := db.Query(query, site, env)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		var uploaded, deleted sql.NullInt64
		if err := rows.Scan(&d.ArticleID, &d.Env, &d.URL, &d.FileName, &d.Title, &d.JSONPath, &uploaded, &deleted); err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		d.UploadedAt = fromUnix(uploaded)
		d.DeletedAt = fromUnix(deleted)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
