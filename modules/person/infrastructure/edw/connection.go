package edw

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Connection is the read-only warehouse connection. It opens lazily on
// first use and is reused for the lifetime of one job invocation; a
// connection failure is fatal to that run, there is no retry.
type Connection struct {
	driver string
	dsn    string
	log    *logrus.Logger
	db     *sqlx.DB
}

func NewConnection(driver, dsn string, log *logrus.Logger) *Connection {
	return &Connection{driver: driver, dsn: dsn, log: log}
}

// NewConnectionFromDB wraps an already-open handle. Used by tests and by
// deployments that manage the warehouse handle themselves.
func NewConnectionFromDB(db *sqlx.DB, log *logrus.Logger) *Connection {
	return &Connection{db: db, log: log}
}

func (c *Connection) handle(ctx context.Context) (*sqlx.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := sqlx.Open(c.driver, c.dsn)
	if err != nil {
		return nil, errors.Wrap(err, "edw: open connection")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "edw: ping")
	}
	c.db = db
	return c.db, nil
}

// FetchAssoc runs a query and returns all rows as column-name to string
// value maps. Queries are written with ? placeholders and rebound to the
// driver's bindvar style; values are always bound, never substituted into
// the SQL text.
func (c *Connection) FetchAssoc(ctx context.Context, query string, args ...any) ([]map[string]string, error) {
	db, err := c.handle(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryxContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "edw: query")
	}
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		raw := map[string]interface{}{}
		if err := rows.MapScan(raw); err != nil {
			return nil, errors.Wrap(err, "edw: scan row")
		}
		out = append(out, stringifyRow(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "edw: iterate rows")
	}
	return out, nil
}

// FetchRow returns the first row of a query as a column map, or nil when
// nothing matches.
func (c *Connection) FetchRow(ctx context.Context, query string, args ...any) (map[string]string, error) {
	rows, err := c.FetchAssoc(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (c *Connection) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// stringifyRow flattens driver values to strings, the uniform shape the
// parser expects. NULL becomes the empty string, indistinguishable from
// the warehouse's space-padded blanks by design of the parser.
func stringifyRow(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for col, v := range raw {
		out[col] = stringifyValue(v)
	}
	return out
}

func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case sql.RawBytes:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
