// Package db встраивает SQL-миграции схемы в бинарник, чтобы они не зависели от рабочей директории.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
