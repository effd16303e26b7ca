// Package appfs embeds the static files the binaries need at runtime.
package appfs

import "embed"

// all: keeps the `_base` email layouts, which a plain directory pattern skips.
//
//go:embed migrations all:templates
var FS embed.FS
