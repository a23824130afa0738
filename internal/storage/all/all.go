// Package all links every run-history backend into the binary. Importing it
// for side effects lets the configuration alone choose the backend.
package all

import (
	_ "retailetl/internal/storage/postgres"
	_ "retailetl/internal/storage/sqlite"
)
