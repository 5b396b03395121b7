//go:build tools

package tools

// Tool dependencies pinned for reproducible builds.
import (
	_ "github.com/pressly/goose/v3/cmd/goose"
)
