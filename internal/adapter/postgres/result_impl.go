package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/user/bfs-crawler/internal/entity"
)

// DB is the subset of *pgxpool.Pool used by the result sink.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const upsertRun = `
	INSERT INTO crawl_runs (run_id, queued, crawled, failed, finished_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (run_id) DO UPDATE SET
		queued = EXCLUDED.queued,
		crawled = EXCLUDED.crawled,
		failed = EXCLUDED.failed,
		finished_at = EXCLUDED.finished_at;
`

const deleteRunResults = `DELETE FROM crawl_results WHERE run_id = $1;`

const insertResult = `
	INSERT INTO crawl_results (run_id, position, loaded_url, requested_at, label, page_function_result, response_status, method, proxy)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`

// ResultRepoImpl stores crawl output in PostgreSQL.
type ResultRepoImpl struct {
	db DB
}

// NewResultRepo creates a new instance of ResultRepoImpl.
func NewResultRepo(db DB) *ResultRepoImpl {
	return &ResultRepoImpl{db: db}
}

func (r *ResultRepoImpl) Name() string { return "postgres" }

// EnsureSchema creates the tables if they do not exist.
func (r *ResultRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save writes the run, its results in output order and its failures in one
// transaction. Saving the same run ID again replaces its results.
func (r *ResultRepoImpl) Save(ctx context.Context, output *entity.CrawlOutput) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	stats := output.Stats
	if _, err := tx.Exec(ctx, upsertRun, output.RunID, stats.Queued, stats.Crawled, stats.Failed); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if _, err := tx.Exec(ctx, deleteRunResults, output.RunID); err != nil {
		return fmt.Errorf("clear previous results: %w", err)
	}

	batch := &pgx.Batch{}
	for i, res := range output.Results {
		var pageFunctionResult []byte
		if res.PageFunctionResult != nil {
			pageFunctionResult, err = json.Marshal(res.PageFunctionResult)
			if err != nil {
				return fmt.Errorf("encode page function result of %s: %w", res.LoadedURL, err)
			}
		}
		batch.Queue(insertResult,
			output.RunID,
			i,
			res.LoadedURL,
			res.RequestedAt,
			string(res.Label),
			pageFunctionResult,
			res.ResponseStatus,
			res.Method,
			res.Proxy,
		)
	}
	queueFailedURLs(batch, output.RunID, output.Failures)

	if batch.Len() > 0 {
		if err := sendBatch(ctx, tx, batch); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	results := tx.SendBatch(ctx, batch)
	for i := range batch.Len() {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return results.Close()
}
