// Package dbtest provides an in-memory database/sql driver that records every statement it is
// given, so SQL code paths can be tested without a database server.
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInjected is returned by statements matching Recorder.FailOn.
var ErrInjected = errors.New("dbtest: injected failure")

// Statement is one executed statement or query.
type Statement struct {
	Query string
	Args  []driver.Value
	InTx  bool
}

// Recorder backs the *sql.DB returned by DB. Set the exported fields before use.
type Recorder struct {
	// FailOn makes statements whose SQL contains it fail, after FailAfter matches have succeeded.
	FailOn    string
	FailAfter int

	// Columns and Rows are returned by every query.
	Columns []string
	Rows    [][]driver.Value

	mu         sync.Mutex
	statements []Statement
	matches    int
	commits    int
	rollbacks  int
}

func New() *Recorder {
	return &Recorder{}
}

// DB opens a pool on the recorder.
func (r *Recorder) DB() *sql.DB {
	return sql.OpenDB(connector{r})
}

// Statements returns what was run so far, failed statements included.
func (r *Recorder) Statements() []Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Statement(nil), r.statements...)
}

func (r *Recorder) Commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

func (r *Recorder) Rollbacks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rollbacks
}

func (r *Recorder) record(query string, args []driver.Value, inTx bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, Statement{Query: query, Args: append([]driver.Value(nil), args...), InTx: inTx})
	if r.FailOn != "" && strings.Contains(query, r.FailOn) {
		r.matches++
		if r.matches > r.FailAfter {
			return ErrInjected
		}
	}
	return nil
}

type connector struct{ r *Recorder }

func (c connector) Connect(context.Context) (driver.Conn, error) { return &conn{r: c.r}, nil }
func (c connector) Driver() driver.Driver                        { return drv{c.r} }

type drv struct{ r *Recorder }

func (d drv) Open(string) (driver.Conn, error) { return &conn{r: d.r}, nil }

type conn struct {
	r    *Recorder
	inTx bool
}

func (c *conn) Prepare(query string) (driver.Stmt, error) { return &stmt{c: c, query: query}, nil }
func (c *conn) Close() error                              { return nil }

func (c *conn) Begin() (driver.Tx, error) {
	c.inTx = true
	return &tx{c: c}, nil
}

type tx struct{ c *conn }

func (t *tx) Commit() error {
	t.c.inTx = false
	t.c.r.mu.Lock()
	t.c.r.commits++
	t.c.r.mu.Unlock()
	return nil
}

func (t *tx) Rollback() error {
	t.c.inTx = false
	t.c.r.mu.Lock()
	t.c.r.rollbacks++
	t.c.r.mu.Unlock()
	return nil
}

type stmt struct {
	c     *conn
	query string
}

func (s *stmt) Close() error  { return nil }
func (s *stmt) NumInput() int { return -1 }

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	if err := s.c.r.record(s.query, args, s.c.inTx); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	if err := s.c.r.record(s.query, args, s.c.inTx); err != nil {
		return nil, err
	}
	s.c.r.mu.Lock()
	defer s.c.r.mu.Unlock()
	return &rows{cols: s.c.r.Columns, data: s.c.r.Rows}, nil
}

type rows struct {
	cols []string
	data [][]driver.Value
	next int
}

func (r *rows) Columns() []string { return r.cols }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.next >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.next])
	r.next++
	return nil
}
