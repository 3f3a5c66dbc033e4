package jobstore

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	idleInTransactionSessionTimeout = 30 * time.Second
	statementTimeout                = 30 * time.Second

	applicationName = "wdlists-dispatcher"
)

// Standard Postgres error codes this package checks for.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	ErrorCodeUniqueViolation      = "23505"
	ErrorCodeDuplicateTable       = "42P07"
	ErrorCodeSerializationFailure = "40001"
	ErrorCodeDeadlockDetected     = "40P01"
)

// See: https://www.postgresql.org/docs/current/runtime-config-client.html#GUC-CLIENT-MIN-MESSAGES
var noticeSeverityToLogLevel = map[string]zerolog.Level{ //nolint:gochecknoglobals
	"DEBUG":   zerolog.DebugLevel,
	"LOG":     zerolog.InfoLevel,
	"INFO":    zerolog.InfoLevel,
	"NOTICE":  zerolog.InfoLevel,
	"WARNING": zerolog.WarnLevel,
}

// initPostgres opens a pool against databaseURI, sizing it to leave room for
// other clients on the same server the way the teacher's InitPostgres does,
// and forwards Postgres NOTICEs to logger. Unlike the teacher, there is no
// per-request schema switching (the dispatcher is a single-tenant batch
// process, not a multi-tenant web service) and no JSON/JSONB codec
// registration (pagestatus has no JSON columns), so BeforeAcquire,
// AfterRelease and AfterConnect are dropped; see DESIGN.md.
func initPostgres(ctx context.Context, databaseURI string, logger zerolog.Logger) (*pgxpool.Pool, errors.E) {
	dbconfig, err := pgxpool.ParseConfig(strings.TrimSpace(databaseURI))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	dbconfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.
			WithLevel(noticeSeverityToLogLevel[notice.SeverityUnlocalized]).
			Fields(errorDetails((*pgconn.PgError)(notice))).
			Bool("postgres", true).
			Send()
	}
	dbconfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	dbconfig.ConnConfig.RuntimeParams["idle_in_transaction_session_timeout"] = strconv.FormatInt(idleInTransactionSessionTimeout.Milliseconds(), 10)
	dbconfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(statementTimeout.Milliseconds(), 10)

	conn, err := pgx.ConnectConfig(ctx, dbconfig.ConnConfig)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer conn.Close(ctx)

	maxConns, errE := queryMaxConns(ctx, conn)
	if errE != nil {
		return nil, errE
	}
	dbconfig.MaxConns = maxConns

	logger.Info().
		Str("serverVersion", conn.PgConn().ParameterStatus("server_version")).
		Msg("database connection successful")

	dbpool, err := pgxpool.NewWithConfig(ctx, dbconfig)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	context.AfterFunc(ctx, dbpool.Close)

	return dbpool, nil
}

func queryMaxConns(ctx context.Context, conn *pgx.Conn) (int32, errors.E) {
	var maxConnectionsStr, reservedConnectionsStr, superuserReservedConnectionsStr string
	if err := conn.QueryRow(ctx, `SHOW max_connections`).Scan(&maxConnectionsStr); err != nil {
		return 0, withPgxError(err)
	}
	if err := conn.QueryRow(ctx, `SHOW reserved_connections`).Scan(&reservedConnectionsStr); err != nil {
		return 0, withPgxError(err)
	}
	if err := conn.QueryRow(ctx, `SHOW superuser_reserved_connections`).Scan(&superuserReservedConnectionsStr); err != nil {
		return 0, withPgxError(err)
	}

	maxConnections, err := strconv.Atoi(maxConnectionsStr)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	reservedConnections, err := strconv.Atoi(reservedConnectionsStr)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	superuserReservedConnections, err := strconv.Atoi(superuserReservedConnectionsStr)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return int32(maxConnections - reservedConnections - superuserReservedConnections), nil //nolint:gosec
}

// ensureTable creates the pagestatus table if it does not exist yet, the
// single-statement equivalent of the teacher's EnsureSchema.
func ensureTable(ctx context.Context, tx pgx.Tx) errors.E {
	_, err := tx.Exec(ctx, `
		CREATE TABLE pagestatus (
			id               BIGSERIAL PRIMARY KEY,
			wiki             TEXT NOT NULL,
			page             TEXT NOT NULL,
			status           TEXT NOT NULL DEFAULT 'PAUSED',
			message          TEXT NOT NULL DEFAULT '',
			priority         SMALLINT NOT NULL DEFAULT 0,
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_runtime_sec DOUBLE PRECISION,
			UNIQUE (wiki, page)
		)
	`)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && (pgError.Code == ErrorCodeUniqueViolation || pgError.Code == ErrorCodeDuplicateTable) {
			return nil
		}
		return withPgxError(err)
	}

	_, err = tx.Exec(ctx, `CREATE INDEX IF NOT EXISTS pagestatus_dequeue_idx ON pagestatus (priority DESC, updated_at ASC)`)
	if err != nil {
		return withPgxError(err)
	}

	return nil
}
