// Package appfs embeds the app's non-Go assets: DB migrations and email
// templates.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
