// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcond

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/canonical/sqlcond/condition"
	"github.com/canonical/sqlcond/dialect"
	"github.com/canonical/sqlcond/internal/bind"
	"github.com/canonical/sqlcond/internal/typeinfo"
)

// M is a convenience type for rows decoded by column name. Any map type
// with string keys can be used in its place.
//
//	var m sqlcond.M
//	err := db.Find(ctx, people, condition.Field[int]("id").Eq(10)).Get(&m) // => sqlcond.M{"id": 10, "name": "Fred"}
type M map[string]any

var (
	ErrNoRows = sql.ErrNoRows
	// ErrTooManyRows is returned by Single when more than one row matches.
	ErrTooManyRows = errors.New("more than one row")
	// ErrUnknownProperty is returned when a property is not a column of a
	// table.
	ErrUnknownProperty = errors.New("unknown property")
)

// dialects stores the dialect detected for every DB.
var dialects = newDialectCache()

// DB runs conditions on a database. The dialect of the database is
// detected on first use unless it is configured.
type DB struct {
	// cacheID is used to look up the detected dialect of this database.
	cacheID uint64
	// sqldb is the underlying database/sql DB object.
	sqldb *sql.DB

	config   Config
	override dialect.Variant
	// overridden is set when override is used instead of detection.
	overridden bool
	locale     language.Tag
	logger     *slog.Logger
}

// Option configures a DB.
type Option func(*options)

type options struct {
	config  Config
	variant *dialect.Variant
	logger  *slog.Logger
}

// WithConfig sets the configuration of the DB.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithVariant skips detection and uses the dialect of v. It takes
// precedence over the dialect of the configuration.
func WithVariant(v dialect.Variant) Option {
	return func(o *options) {
		o.variant = &v
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewDB creates a new [DB] from a [sql.DB].
func NewDB(sqldb *sql.DB, opts ...Option) (*DB, error) {
	if sqldb == nil {
		return nil, errors.New("cannot use nil sql.DB")
	}
	o := options{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	override, overridden, _ := o.config.Variant()
	if o.variant != nil {
		override, overridden = *o.variant, true
	}
	locale, _ := o.config.Tag()
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db := dialects.newDB(sqldb)
	db.config = o.config
	db.override = override
	db.overridden = overridden
	db.locale = locale
	db.logger = logger
	return db, nil
}

// PlainDB returns the underlying database object.
func (db *DB) PlainDB() *sql.DB {
	return db.sqldb
}

// Quirks returns the quirks of the database dialect, detecting it on first
// use. Detection runs queries on the database bounded by the configured
// timeout.
func (db *DB) Quirks(ctx context.Context) (dialect.Quirks, error) {
	v, err := db.Variant(ctx)
	if err != nil {
		return nil, err
	}
	return dialect.ForVariant(v), nil
}

// Variant returns the database dialect, detecting it on first use.
func (db *DB) Variant(ctx context.Context) (dialect.Variant, error) {
	if db.overridden {
		return db.override, nil
	}
	if d, ok := dialects.lookup(db.cacheID); ok {
		return d.Variant, nil
	}

	dialects.startDetection(db.cacheID)
	if db.config.DetectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, db.config.DetectTimeout)
		defer cancel()
	}
	detector := dialect.Detector{Logger: db.logger}
	d, err := detector.Detect(ctx, db.sqldb)
	if err != nil {
		dialects.abortDetection(db.cacheID)
		return dialect.Unknown, fmt.Errorf("cannot detect database dialect: %w", err)
	}
	dialects.store(db.cacheID, d)
	db.logger.Info("detected database dialect", "product", d.Product, "variant", d.Variant)
	return d.Variant, nil
}

// Order is an ORDER BY term.
type Order struct {
	Property   string
	Descending bool
}

// Asc orders by a property in ascending order.
func Asc(property string) Order {
	return Order{Property: property}
}

// Desc orders by a property in descending order.
func Desc(property string) Order {
	return Order{Property: property, Descending: true}
}

// FindOption configures a [DB.Find] query.
type FindOption func(*findOptions)

type findOptions struct {
	columns []string
	orderBy []Order
	offset  *int64
	limit   *int64
}

// Columns selects only the given properties.
func Columns(properties ...string) FindOption {
	return func(o *findOptions) {
		o.columns = append(o.columns, properties...)
	}
}

// OrderBy sorts the rows.
func OrderBy(orders ...Order) FindOption {
	return func(o *findOptions) {
		o.orderBy = append(o.orderBy, orders...)
	}
}

// Offset skips the first n rows. n must not be negative.
func Offset(n int64) FindOption {
	return func(o *findOptions) {
		o.offset = &n
	}
}

// Limit returns at most n rows. n must not be negative and a limit of 0
// returns no rows without querying the database.
func Limit(n int64) FindOption {
	return func(o *findOptions) {
		o.limit = &n
	}
}

// Query represents a query on a database. It is designed to be run once.
type Query struct {
	ctx   context.Context
	db    *DB
	table *Table
	where condition.Condition
	opts  findOptions
	err   error
}

// Find builds a query for the rows of table matching where. NoCondition
// matches every row. The query is run on the database when one of
// [Query.Iter], [Query.Get], [Query.GetAll] or [Query.Single] is executed.
func (db *DB) Find(ctx context.Context, table *Table, where condition.Condition, opts ...FindOption) *Query {
	if ctx == nil {
		ctx = context.Background()
	}
	q := &Query{ctx: ctx, db: db, table: table, where: where}
	for _, opt := range opts {
		opt(&q.opts)
	}
	if table == nil {
		q.err = errors.New("cannot query nil table")
		return q
	}
	if err := dialect.ValidateOffsetLimit(q.opts.offset, q.opts.limit); err != nil {
		q.err = fmt.Errorf("cannot build query: %w", err)
	}
	return q
}

// empty reports whether the query returns no rows by construction.
func (q *Query) empty() bool {
	return q.opts.limit != nil && *q.opts.limit == 0
}

// compileWhere returns the WHERE clause of a condition, or "" for
// NoCondition.
func compileWhere(quirks dialect.Quirks, table *Table, locale language.Tag, where condition.Condition) (condition.ParametrizedSQL, error) {
	if condition.IsNoCondition(where) {
		return condition.ParametrizedSQL{}, nil
	}
	compiler := condition.Compiler{Quirks: quirks, Columns: table, Locale: locale}
	psql, err := compiler.Compile(where)
	if err != nil {
		return condition.ParametrizedSQL{}, err
	}
	return condition.Merge(" WHERE "+psql.SQL(), psql)
}

// statement returns the SELECT statement of the query with the given
// limit in place of the query's own.
func (q *Query) statement(limit *int64) (bind.Statement, dialect.Quirks, error) {
	quirks, err := q.db.Quirks(q.ctx)
	if err != nil {
		return bind.Statement{}, nil, err
	}

	cols := q.table.Columns()
	if len(q.opts.columns) > 0 {
		cols = cols[:0:0]
		for _, p := range q.opts.columns {
			col, err := q.table.ResolveColumn(p)
			if err != nil {
				return bind.Statement{}, nil, err
			}
			cols = append(cols, col)
		}
	}

	where, err := compileWhere(quirks, q.table, q.db.locale, q.where)
	if err != nil {
		return bind.Statement{}, nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + strings.Join(cols, ", ") + " FROM " + q.table.from())
	sb.WriteString(where.SQL())
	if len(q.opts.orderBy) > 0 {
		terms := make([]string, len(q.opts.orderBy))
		for i, o := range q.opts.orderBy {
			col, err := q.table.ResolveColumn(o.Property)
			if err != nil {
				return bind.Statement{}, nil, err
			}
			if o.Descending {
				col += " DESC"
			}
			terms[i] = col
		}
		sb.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}
	page, err := dialect.Paginate(quirks, q.opts.offset, limit, len(q.opts.orderBy) > 0)
	if err != nil {
		return bind.Statement{}, nil, err
	}
	if page != "" {
		sb.WriteString(" " + page)
	}

	stmt, err := bindStatement(quirks, sb.String(), where.Params())
	return stmt, quirks, err
}

// bindStatement binds named parameters in the driver's style, encoding
// opaque values for the dialect.
func bindStatement(quirks dialect.Quirks, query string, params map[string]any) (bind.Statement, error) {
	stmt, err := bind.Bind(query, params, quirks.Placeholder())
	if err != nil {
		return bind.Statement{}, err
	}
	for i, arg := range stmt.Args {
		stmt.Args[i] = quirks.EncodeOpaqueValue(arg)
	}
	return stmt, nil
}

// SQL returns the statement the query runs and its arguments.
func (q *Query) SQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	stmt, _, err := q.statement(q.opts.limit)
	if err != nil {
		return "", nil, err
	}
	return stmt.SQL, stmt.Args, nil
}

// run runs the query with the given limit.
func (q *Query) run(limit *int64) *Iterator {
	if q.err != nil {
		return &Iterator{err: q.err}
	}
	if limit != nil && *limit == 0 {
		return &Iterator{}
	}
	stmt, quirks, err := q.statement(limit)
	if err != nil {
		return &Iterator{err: err}
	}
	q.db.logger.Debug("running query", "sql", stmt.SQL, "args", len(stmt.Args), "variant", quirks.Variant())
	rows, err := q.db.sqldb.QueryContext(q.ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return &Iterator{err: err}
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return &Iterator{err: err}
	}
	return &Iterator{rows: rows, cols: cols}
}

// Iter returns an [Iterator] to iterate through the results row by row.
// [Iterator.Close] must be run once iteration is finished.
func (q *Query) Iter() *Iterator {
	return q.run(q.opts.limit)
}

// Get decodes the first row into output, which is a pointer to a struct
// with "db" tags or a map with string keys. It returns [ErrNoRows] if no
// rows are found.
func (q *Query) Get(output any) error {
	if q.empty() && q.err == nil {
		return ErrNoRows
	}
	iter := q.Iter()
	err := iter.firstRow(output)
	if cerr := iter.Close(); err == nil {
		err = cerr
	}
	return err
}

// Single decodes the only matching row into output. It returns [ErrNoRows]
// if no rows match and [ErrTooManyRows] if more than one does.
func (q *Query) Single(output any) error {
	if q.empty() && q.err == nil {
		return ErrNoRows
	}
	limit := int64(2)
	if q.opts.limit != nil && *q.opts.limit < limit {
		limit = *q.opts.limit
	}
	iter := q.run(&limit)
	err := iter.firstRow(output)
	if err == nil && iter.Next() {
		err = ErrTooManyRows
	}
	if cerr := iter.Close(); err == nil {
		err = cerr
	}
	return err
}

// GetAll decodes every row into the slice pointed to by slicePtr, whose
// elements are structs, pointers to structs or maps. No rows leave an
// empty slice.
func (q *Query) GetAll(slicePtr any) (err error) {
	ptrVal := reflect.ValueOf(slicePtr)
	if ptrVal.Kind() != reflect.Pointer {
		return fmt.Errorf("need pointer to slice, got %s", ptrVal.Kind())
	}
	if ptrVal.IsNil() {
		return fmt.Errorf("need pointer to slice, got nil")
	}
	sliceVal := ptrVal.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return fmt.Errorf("need pointer to slice, got pointer to %s", sliceVal.Kind())
	}
	elemType := sliceVal.Type().Elem()
	switch {
	case elemType.Kind() == reflect.Struct, elemType.Kind() == reflect.Map:
	case elemType.Kind() == reflect.Pointer && elemType.Elem().Kind() == reflect.Struct:
	default:
		return fmt.Errorf("need slice of structs/maps, got slice of %s", elemType)
	}

	result := reflect.MakeSlice(sliceVal.Type(), 0, 0)
	iter := q.Iter()
	defer func() {
		if cerr := iter.Close(); err == nil {
			err = cerr
		}
		if err == nil {
			sliceVal.Set(result)
		}
	}()
	for iter.Next() {
		var outputArg reflect.Value
		switch elemType.Kind() {
		case reflect.Pointer:
			outputArg = reflect.New(elemType.Elem())
		case reflect.Struct:
			outputArg = reflect.New(elemType)
		case reflect.Map:
			outputArg = reflect.MakeMap(elemType)
		}
		if err := iter.Get(outputArg.Interface()); err != nil {
			return err
		}
		if elemType.Kind() == reflect.Struct {
			outputArg = outputArg.Elem()
		}
		result = reflect.Append(result, outputArg)
	}
	return nil
}

// Iterator is used to iterate over the results of the query.
type Iterator struct {
	rows    *sql.Rows
	cols    []string
	err     error
	started bool
}

// Next prepares the next row for [Iterator.Get]. If an error occurs during
// iteration it will be returned with [Iterator.Close].
func (iter *Iterator) Next() bool {
	iter.started = true
	if iter.err != nil || iter.rows == nil {
		return false
	}
	return iter.rows.Next()
}

// Get decodes the row from the previous [Iterator.Next] call into output,
// which is a pointer to a struct with "db" tags or a map with string keys.
func (iter *Iterator) Get(output any) (err error) {
	if iter.err != nil {
		return iter.err
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot get result: %w", err)
		}
	}()

	if !iter.started {
		return errors.New("cannot call Get before Next")
	}
	if iter.rows == nil {
		return errors.New("iteration ended")
	}

	ptrs, proxies, err := typeinfo.ScanTargets(output, iter.cols)
	if err != nil {
		return err
	}
	if err := iter.rows.Scan(ptrs...); err != nil {
		return err
	}
	for _, proxy := range proxies {
		proxy.OnSuccess()
	}
	return nil
}

// firstRow decodes the first row, returning ErrNoRows if there is none.
func (iter *Iterator) firstRow(output any) error {
	if !iter.Next() {
		if err := iter.Close(); err != nil {
			return err
		}
		return ErrNoRows
	}
	return iter.Get(output)
}

// Close finishes the iteration and returns any errors encountered. Close can
// be called multiple times on the [Iterator] and the same error will be
// returned.
func (iter *Iterator) Close() error {
	iter.started = true
	if iter.rows == nil {
		return iter.err
	}
	err := iter.rows.Close()
	if err == nil {
		err = iter.rows.Err()
	}
	iter.rows = nil
	if iter.err != nil {
		return iter.err
	}
	iter.err = err
	return err
}

// Count returns the number of rows of table matching where.
func (db *DB) Count(ctx context.Context, table *Table, where condition.Condition) (int64, error) {
	var n int64
	err := db.queryRow(ctx, table, where, "SELECT COUNT(*)", nil, &n)
	if err != nil {
		return 0, fmt.Errorf("cannot count rows: %w", err)
	}
	return n, nil
}

// Exists reports whether any row of table matches where.
func (db *DB) Exists(ctx context.Context, table *Table, where condition.Condition) (bool, error) {
	var one int64
	limit := int64(1)
	err := db.queryRow(ctx, table, where, "SELECT 1", &limit, &one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot check rows: %w", err)
	}
	return true, nil
}

func (db *DB) queryRow(ctx context.Context, table *Table, where condition.Condition, selectClause string, limit *int64, dest any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if table == nil {
		return errors.New("nil table")
	}
	quirks, err := db.Quirks(ctx)
	if err != nil {
		return err
	}
	w, err := compileWhere(quirks, table, db.locale, where)
	if err != nil {
		return err
	}
	query := selectClause + " FROM " + table.from() + w.SQL()
	if limit != nil {
		page, err := dialect.Paginate(quirks, nil, limit, false)
		if err != nil {
			return err
		}
		query += " " + page
	}
	stmt, err := bindStatement(quirks, query, w.Params())
	if err != nil {
		return err
	}
	db.logger.Debug("running query", "sql", stmt.SQL, "args", len(stmt.Args), "variant", quirks.Variant())
	return db.sqldb.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(dest)
}

// Delete deletes the rows of table matching where and returns how many
// were deleted. NoCondition deletes every row. The table alias is not
// used.
func (db *DB) Delete(ctx context.Context, table *Table, where condition.Condition) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if table == nil {
		return 0, errors.New("cannot delete rows: nil table")
	}
	table = table.As("")
	quirks, err := db.Quirks(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot delete rows: %w", err)
	}
	w, err := compileWhere(quirks, table, db.locale, where)
	if err != nil {
		return 0, fmt.Errorf("cannot delete rows: %w", err)
	}
	stmt, err := bindStatement(quirks, "DELETE FROM "+table.from()+w.SQL(), w.Params())
	if err != nil {
		return 0, fmt.Errorf("cannot delete rows: %w", err)
	}
	db.logger.Debug("running statement", "sql", stmt.SQL, "args", len(stmt.Args), "variant", quirks.Variant())
	result, err := db.sqldb.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("cannot delete rows: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cannot delete rows: %w", err)
	}
	return n, nil
}

// String returns a description of the DB for logs.
func (db *DB) String() string {
	return "DB(" + strconv.FormatUint(db.cacheID, 10) + ")"
}
