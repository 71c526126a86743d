// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect_test

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	. "gopkg.in/check.v1"
	_ "modernc.org/sqlite"

	"github.com/canonical/sqlcond/dialect"
)

type DetectSuite struct{}

var _ = Suite(&DetectSuite{})

func (s *DetectSuite) TestRecognize(c *C) {
	tests := []struct {
		product string
		variant dialect.Variant
	}{
		{"MySQL", dialect.MySQL},
		{"MariaDB", dialect.MySQL},
		{"10.11.6-MariaDB-0+deb12u1", dialect.MySQL},
		{"mariadb.org binary distribution", dialect.MySQL},
		{"MySQL Community Server - GPL", dialect.MySQL},
		{"PostgreSQL", dialect.PostgreSQL},
		{"PostgreSQL 16.2 on x86_64-pc-linux-gnu", dialect.PostgreSQL},
		{"H2", dialect.H2},
		{"H2 2.2", dialect.Unknown},
		{"Microsoft SQL Server", dialect.MSSQL},
		{"Microsoft SQL Server 2022 (RTM) - 16.0.1000.6", dialect.MSSQL},
		{"SQLite", dialect.SQLite},
		{"DuckDB", dialect.DuckDB},
		{"Oracle", dialect.Unknown},
		{"", dialect.Unknown},
	}
	for _, t := range tests {
		c.Check(dialect.Recognize(t.product), Equals, t.variant, Commentf("product %q", t.product))
	}
}

func (s *DetectSuite) TestRecognizersAreOrdered(c *C) {
	d := &dialect.Detector{Recognizers: []dialect.Recognizer{
		{Variant: dialect.H2, Match: func(string) bool { return true }},
		{Variant: dialect.MySQL, Match: func(string) bool { return true }},
	}}
	db, mock, err := sqlmock.New()
	c.Assert(err, IsNil)
	defer db.Close()
	mock.ExpectQuery(`SELECT @@version_comment`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("MySQL"))

	detection, err := d.Detect(context.Background(), db)
	c.Assert(err, IsNil)
	c.Check(detection.Variant, Equals, dialect.H2)
}

func (s *DetectSuite) TestDetectFromDriver(c *C) {
	tests := []struct {
		driver  string
		dsn     string
		product string
		variant dialect.Variant
	}{
		{"sqlite3", ":memory:", "SQLite", dialect.SQLite},
		{"sqlite", ":memory:", "SQLite", dialect.SQLite},
		// sql.Open does not connect, so no server is needed.
		{"pgx", "postgres://localhost:1/none", "PostgreSQL", dialect.PostgreSQL},
	}
	for _, t := range tests {
		db, err := sql.Open(t.driver, t.dsn)
		c.Assert(err, IsNil)
		detection, err := (&dialect.Detector{}).Detect(context.Background(), db)
		c.Assert(err, IsNil)
		c.Check(detection, Equals, dialect.Detection{Product: t.product, Variant: t.variant}, Commentf("driver %s", t.driver))
		c.Assert(db.Close(), IsNil)
	}
}

func (s *DetectSuite) TestDetectFromProbes(c *C) {
	tests := []struct {
		summary string
		expect  func(mock sqlmock.Sqlmock)
		result  dialect.Detection
	}{{
		summary: "mysql answers the first probe",
		expect: func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT @@version_comment`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("MySQL Community Server - GPL"))
		},
		result: dialect.Detection{Product: "MySQL Community Server - GPL", Variant: dialect.MySQL},
	}, {
		summary: "postgresql rejects the first probe",
		expect: func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT @@version_comment`).WillReturnError(errors.New("syntax error"))
			mock.ExpectQuery(`SELECT version\(\)`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("PostgreSQL 16.2"))
		},
		result: dialect.Detection{Product: "PostgreSQL 16.2", Variant: dialect.PostgreSQL},
	}, {
		summary: "mssql answers the last probe",
		expect: func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT @@version_comment`).WillReturnError(errors.New("invalid"))
			mock.ExpectQuery(`SELECT version\(\)`).WillReturnError(errors.New("no such function"))
			mock.ExpectQuery(`SELECT @@VERSION`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("Microsoft SQL Server 2022"))
		},
		result: dialect.Detection{Product: "Microsoft SQL Server 2022", Variant: dialect.MSSQL},
	}, {
		summary: "unrecognised answers resolve to unknown",
		expect: func(mock sqlmock.Sqlmock) {
			mock.ExpectQuery(`SELECT @@version_comment`).WillReturnError(errors.New("invalid"))
			mock.ExpectQuery(`SELECT version\(\)`).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("v1.1.3"))
			mock.ExpectQuery(`SELECT @@VERSION`).WillReturnError(errors.New("invalid"))
		},
		result: dialect.Detection{Product: "v1.1.3", Variant: dialect.Unknown},
	}}
	for i, t := range tests {
		db, mock, err := sqlmock.New()
		c.Assert(err, IsNil)
		t.expect(mock)

		detection, err := (&dialect.Detector{}).Detect(context.Background(), db)
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(detection, Equals, t.result, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(mock.ExpectationsWereMet(), IsNil, Commentf("test %d failed (%s)", i, t.summary))
		db.Close()
	}
}

func (s *DetectSuite) TestDetectCancelled(c *C) {
	db, mock, err := sqlmock.New()
	c.Assert(err, IsNil)
	defer db.Close()
	mock.ExpectQuery(`SELECT @@version_comment`).WillDelayFor(time.Second).WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("MySQL"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = (&dialect.Detector{}).Detect(ctx, db)
	c.Assert(errors.Is(err, context.DeadlineExceeded), Equals, true)
}
