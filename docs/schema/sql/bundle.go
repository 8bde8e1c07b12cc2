// Package sqldocs embeds the result-store DDL straight from the docs tree.
package sqldocs

import _ "embed"

// SQLite contains the SQLite DDL for the result relation.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the Postgres DDL for the result relation.
//
//go:embed postgres.sql
var Postgres string
