// Package jobstore persists per-page dispatch state in Postgres: which
// pages exist, whether one is currently being worked on, and the outcome of
// its last run. It is the wdlists equivalent of the teacher's internal/store
// package, trimmed to a single schema and a single table.
package jobstore

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const messageMaxLen = 200

// Page is a single pagestatus row, as handed to a dispatcher worker.
type Page struct {
	ID    int64
	Wiki  string
	Title string
}

// Store wraps a Postgres connection pool with the pagestatus operations
// internal/dispatcher needs: dequeueing the next page to process, recording
// an outcome, and the two startup recovery steps (spec §4.10, §6).
type Store struct {
	pool *pgxpool.Pool
}

// NewStore opens a connection pool against databaseURI and ensures the
// pagestatus table exists.
func NewStore(ctx context.Context, databaseURI string, logger zerolog.Logger) (*Store, errors.E) {
	pool, errE := initPostgres(ctx, databaseURI, logger)
	if errE != nil {
		return nil, errE
	}

	errE = retryTransaction(ctx, pool, func(ctx context.Context, tx pgx.Tx) errors.E {
		return ensureTable(ctx, tx)
	})
	if errE != nil {
		pool.Close()
		return nil, errE
	}

	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// PrepareNextPage is "prepare_next_single_page": it selects the
// highest-priority eligible page (priority=1 rows first, then oldest
// updated_at), marks it RUNNING and returns it. ok is false when the queue
// is empty. Runs inside retryTransaction since two dispatcher workers can
// race for the same row under Serializable isolation.
func (s *Store) PrepareNextPage(ctx context.Context) (*Page, bool, errors.E) {
	var page *Page

	excluded := make([]string, len(excludedFromDequeue))
	for i, status := range excludedFromDequeue {
		excluded[i] = string(status)
	}

	errE := retryTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) errors.E {
		page = nil

		row := tx.QueryRow(ctx, `
			SELECT id, wiki, page
			FROM pagestatus
			WHERE NOT (status = ANY($1))
			ORDER BY priority DESC, updated_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`, excluded)

		var p Page
		err := row.Scan(&p.ID, &p.Wiki, &p.Title)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return withPgxError(err)
		}

		_, err = tx.Exec(ctx, `UPDATE pagestatus SET status = $1, updated_at = now() WHERE id = $2`, string(StatusRunning), p.ID)
		if err != nil {
			return withPgxError(err)
		}

		page = &p
		return nil
	})
	if errE != nil {
		return nil, false, errE
	}

	return page, page != nil, nil
}

// UpdateStatus is "update_status": it records the outcome of processing a
// page. The message is truncated to 200 characters, and priority is reset
// to 0 on a terminal OK or FAIL outcome (a page that was bumped to the
// front of the queue for a retry no longer needs priority once it has run).
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status, message string) errors.E {
	if len(message) > messageMaxLen {
		message = message[:messageMaxLen]
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE pagestatus
		SET status = $1,
		    message = $2,
		    updated_at = now(),
		    priority = CASE WHEN $1 IN ('OK', 'FAIL') THEN 0 ELSE priority END
		WHERE id = $3
	`, string(status), message, id)
	if err != nil {
		return withPgxError(err)
	}
	return nil
}

// Prioritize bumps a page to priority=1 so the next PrepareNextPage call
// picks it up ahead of every priority=0 row, regardless of queue age. Used
// by the `page` command to run a specific page immediately via the queue
// dispatcher instead of processing it out of band.
func (s *Store) Prioritize(ctx context.Context, wiki, title string) errors.E {
	_, err := s.pool.Exec(ctx, `UPDATE pagestatus SET priority = 1 WHERE wiki = $1 AND page = $2`, wiki, title)
	if err != nil {
		return withPgxError(err)
	}
	return nil
}

// SetRuntime records how long the most recent run of a page took.
func (s *Store) SetRuntime(ctx context.Context, id int64, runtime time.Duration) errors.E {
	_, err := s.pool.Exec(ctx, `UPDATE pagestatus SET last_runtime_sec = $1 WHERE id = $2`, runtime.Seconds(), id)
	if err != nil {
		return withPgxError(err)
	}
	return nil
}

// ResetRunning marks any RUNNING rows back to PAUSED. Called once at
// startup to reclaim pages whose worker was killed mid-run (spec §4.10,
// "crash recovery").
func (s *Store) ResetRunning(ctx context.Context) errors.E {
	_, err := s.pool.Exec(ctx, `UPDATE pagestatus SET status = $1, updated_at = now() WHERE status = $2`,
		string(StatusPaused), string(StatusRunning))
	if err != nil {
		return withPgxError(err)
	}
	return nil
}

// ClearDeleted removes DELETED rows. Called once at startup.
func (s *Store) ClearDeleted(ctx context.Context) errors.E {
	_, err := s.pool.Exec(ctx, `DELETE FROM pagestatus WHERE status = $1`, string(StatusDeleted))
	if err != nil {
		return withPgxError(err)
	}
	return nil
}

// EnsurePages inserts a PAUSED row for every (wiki, title) pair not already
// present, the seeding step behind the update-wikis command: it populates
// pagestatus from a wiki's current template-transclusion listing without
// disturbing rows that already exist (and so are mid-queue or already run).
func (s *Store) EnsurePages(ctx context.Context, wiki string, titles []string) errors.E {
	if len(titles) == 0 {
		return nil
	}

	return retryTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) errors.E {
		batch := &pgx.Batch{}
		for _, title := range titles {
			batch.Queue(`
				INSERT INTO pagestatus (wiki, page, status)
				VALUES ($1, $2, $3)
				ON CONFLICT (wiki, page) DO NOTHING
			`, wiki, title, string(StatusPaused))
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close() //nolint:errcheck

		for range titles {
			if _, err := br.Exec(); err != nil {
				return withPgxError(err)
			}
		}
		return nil
	})
}

// PurgeMissing marks pagestatus rows DELETED for titles no longer present
// in currentTitles for wiki, so a page removed from a wiki's
// template-transclusion listing eventually drops out of the queue via
// ClearDeleted on the next startup.
func (s *Store) PurgeMissing(ctx context.Context, wiki string, currentTitles []string) errors.E {
	placeholder := make([]string, 0, len(currentTitles))
	args := make([]interface{}, 0, len(currentTitles)+1)
	args = append(args, wiki)
	for i, title := range currentTitles {
		placeholder = append(placeholder, "$"+strconv.Itoa(i+2))
		args = append(args, title)
	}

	query := `UPDATE pagestatus SET status = 'DELETED', updated_at = now() WHERE wiki = $1 AND status != 'DELETED'`
	if len(placeholder) > 0 {
		query += ` AND page NOT IN (` + strings.Join(placeholder, ", ") + `)`
	}

	_, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return withPgxError(err)
	}
	return nil
}
