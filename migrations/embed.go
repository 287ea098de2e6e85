// Package migrations embeds the numbered schema files applied by
// "medbase-server migrate up".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
