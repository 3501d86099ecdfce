// Package migrations holds the versioned PostgreSQL schema.
//
// mode_paiement is an ENUM that only grows: new labels are added with
// ALTER TYPE ... ADD VALUE in a new migration, never by recreating the type.
package migrations

import "embed"

// FS contains every *.sql migration of this directory
//
//go:embed *.sql
var FS embed.FS
