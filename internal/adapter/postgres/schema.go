package postgres

// schemaSQL creates the result tables. Safe to run repeatedly.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS crawl_runs (
    run_id TEXT PRIMARY KEY,
    queued INT NOT NULL DEFAULT 0,
    crawled INT NOT NULL DEFAULT 0,
    failed INT NOT NULL DEFAULT 0,
    finished_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS crawl_results (
    id BIGSERIAL PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES crawl_runs(run_id) ON DELETE CASCADE,
    position INT NOT NULL,
    loaded_url TEXT NOT NULL,
    requested_at TIMESTAMP WITH TIME ZONE NOT NULL,
    label TEXT NOT NULL,
    page_function_result JSONB,
    response_status INT NOT NULL,
    method TEXT NOT NULL,
    proxy TEXT,
    UNIQUE (run_id, position)
);

CREATE TABLE IF NOT EXISTS failed_urls (
    id BIGSERIAL PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES crawl_runs(run_id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    depth INT NOT NULL,
    label TEXT NOT NULL,
    failure_reason TEXT NOT NULL,
    last_attempt_timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
    retry_count INT NOT NULL DEFAULT 1,
    UNIQUE (run_id, url)
);
`
