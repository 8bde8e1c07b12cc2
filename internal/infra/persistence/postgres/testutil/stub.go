// Package testutil provides a scripted database/sql driver for exercising the
// postgres result store without a server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

var stubSeq atomic.Uint64

// Query is one statement received by the stub together with its bind values.
type Query struct {
	SQL  string
	Args []any
}

// Response is the canned result for statements containing Match.
type Response struct {
	Match   string
	Columns []string
	Rows    [][]driver.Value
	Err     error
}

// StubConn records every statement and answers queries from scripted responses.
type StubConn struct {
	mu        sync.Mutex
	Execs     []string
	Queries   []Query
	Responses []Response
	FailPing  bool
	FailExec  bool
}

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Respond scripts the rows returned for statements containing match. Later
// calls take precedence over earlier ones.
func (c *StubConn) Respond(match string, columns []string, rows ...[]driver.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Responses = append(c.Responses, Response{Match: match, Columns: columns, Rows: rows})
}

// FailQuery makes statements containing match fail with err.
func (c *StubConn) FailQuery(match string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Responses = append(c.Responses, Response{Match: match, Err: err})
}

// Recorded returns a copy of the queries seen so far.
func (c *StubConn) Recorded() []Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Query(nil), c.Queries...)
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("read-only stub") }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	return driver.RowsAffected(0), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	values := make([]any, len(args))
	for i, a := range args {
		values[i] = a.Value
	}
	c.Queries = append(c.Queries, Query{SQL: query, Args: values})
	for i := len(c.Responses) - 1; i >= 0; i-- {
		r := c.Responses[i]
		if !strings.Contains(query, r.Match) {
			continue
		}
		if r.Err != nil {
			return nil, r.Err
		}
		return &stubRows{cols: r.Columns, rows: r.Rows}, nil
	}
	return &stubRows{}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
