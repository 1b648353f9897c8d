package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"keyjournal/internal/store"
)

// DatabaseCheck opens the journal database, which applies pending
// migrations, and reports its schema version and record counts.
func DatabaseCheck(path string) Check {
	return func(ctx context.Context) Result {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Degraded(fmt.Sprintf("%s not created yet", path))
		}

		db, err := store.Open(path)
		if err != nil {
			return Unhealthy("open failed", err)
		}
		defer db.Close()

		ver, err := db.SchemaVersion()
		if err != nil {
			return Unhealthy("schema version unreadable", err)
		}
		counts, err := db.Count(ctx)
		if err != nil {
			return Unhealthy("count failed", err)
		}
		return Healthy(fmt.Sprintf("schema v%d, %d clicks, %d keystrokes", ver, counts.Click, counts.Keystroke))
	}
}

// WritableDirCheck verifies that files can be created in dir. A missing
// directory is healthy when its parent is writable, since it is created on
// first use.
func WritableDirCheck(dir string) Check {
	return func(context.Context) Result {
		target := dir
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			target = filepath.Dir(dir)
		}

		f, err := os.CreateTemp(target, ".keyjournal-check-*")
		if err != nil {
			return Unhealthy(fmt.Sprintf("%s not writable", target), err)
		}
		name := f.Name()
		f.Close()
		os.Remove(name)

		if target != dir {
			return Healthy(fmt.Sprintf("%s will be created", dir))
		}
		return Healthy(dir + " writable")
	}
}
