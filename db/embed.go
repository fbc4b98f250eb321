// Package db provides embedded database schema and seed files.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Seed is the default catalog, customer and supplier data loaded by seed-db.
//
//go:embed seed/store.json
var Seed []byte
