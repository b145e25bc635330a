// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for all storefront tables and indexes.
//
//go:embed migrations/001_schema.sql
var Schema string
