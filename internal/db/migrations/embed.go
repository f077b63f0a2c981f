// Package migrations provides embedded SQL migration files.
// They are applied at startup and by testutil for integration tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
