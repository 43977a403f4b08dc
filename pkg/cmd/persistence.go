// Package cmd provides shared construction helpers for the service binaries.
package cmd

import (
	"strings"

	"github.com/covena/covena/pkg/persistence"
	"github.com/covena/covena/pkg/persistence/file"
	"github.com/covena/covena/pkg/persistence/memory"
)

// NewPersistence selects a store implementation from the database URL scheme.
// "memory://" keeps everything in process; anything else is treated as a
// file root.
func NewPersistence(databaseURL string) persistence.Persistence {
	if strings.HasPrefix(databaseURL, "memory://") {
		return memory.NewPersistence()
	}

	return file.NewPersistence(databaseURL)
}
