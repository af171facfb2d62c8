package agent

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/bft-labs/snapship/internal/domain"
)

// verifyDatabase checks that the restored file exists, is non-empty, and is a
// readable SQLite database. The restore tool's exit status alone says nothing
// about the file it left behind, so this is the actual post-condition.
func verifyDatabase(ctx context.Context, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: restored file missing: %v", domain.ErrRestoreFailed, err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%w: restored file %s is empty", domain.ErrRestoreFailed, path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("%w: open restored file: %v", domain.ErrRestoreFailed, err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %s is not a readable database: %v", domain.ErrRestoreFailed, path, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: integrity check reported %q", domain.ErrRestoreFailed, result)
	}
	return nil
}
