// Package migrations holds the ordered SQL schema files, named NNN_description.sql.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
