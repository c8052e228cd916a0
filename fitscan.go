// Package fitscan holds assets embedded into the server binary.
package fitscan

import "embed"

// MigrationsFS contains the PostgreSQL schema migrations applied at startup.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
