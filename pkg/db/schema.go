package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- URLs: every page known for a site, with the file stem used on disk
CREATE TABLE IF NOT EXISTS urls (
    url_id INTEGER PRIMARY KEY AUTOINCREMENT,
    site TEXT NOT NULL,
    original_url TEXT NOT NULL,
    domain TEXT NOT NULL,
    path TEXT,
    file_name TEXT NOT NULL,
    discovered_at INTEGER NOT NULL,
    UNIQUE(site, original_url)
);

CREATE INDEX IF NOT EXISTS idx_urls_site ON urls(site);
CREATE INDEX IF NOT EXISTS idx_urls_file ON urls(site, file_name);

-- URL accesses: every fetch attempt
CREATE TABLE IF NOT EXISTS url_accesses (
    access_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL,
    accessed_at INTEGER NOT NULL,
    status_code INTEGER,
    error_type TEXT,
    rendered BOOLEAN NOT NULL DEFAULT 0,
    success BOOLEAN NOT NULL,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_accesses_url ON url_accesses(url_id);
CREATE INDEX IF NOT EXISTS idx_accesses_success ON url_accesses(success);

-- Pages: latest normalized content per URL
CREATE TABLE IF NOT EXISTS pages (
    url_id INTEGER PRIMARY KEY,
    title TEXT,
    excerpt TEXT,
    language TEXT,
    content_hash TEXT NOT NULL,
    size_bytes INTEGER,
    rendered BOOLEAN NOT NULL DEFAULT 0,
    scraped_at INTEGER NOT NULL,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE
);

-- Documents: search records per environment
CREATE TABLE IF NOT EXISTS documents (
    document_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url_id INTEGER NOT NULL,
    env TEXT NOT NULL,
    article_id TEXT NOT NULL,
    title TEXT,
    json_path TEXT,
    uploaded_at INTEGER,
    deleted_at INTEGER,
    FOREIGN KEY (url_id) REFERENCES urls(url_id) ON DELETE CASCADE,
    UNIQUE(env, article_id)
);

CREATE INDEX IF NOT EXISTS idx_documents_url ON documents(url_id);
CREATE INDEX IF NOT EXISTS idx_documents_env ON documents(env);
`
