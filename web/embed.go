// Package web holds the single page served at the site root.
package web

import "embed"

//go:embed static
var Static embed.FS

// StaticRoot is the directory inside Static that maps to "/".
const StaticRoot = "static"
