package chatlog

import (
	"fmt"
	"os"
	"time"
)

const (
	lockPollInterval = 100 * time.Millisecond
	lockMaxRetries   = 50 // 5 s ceiling
)

// acquireLock takes the per-session lock file by atomic create. On timeout
// the caller drops the append (the database side of the same event still
// succeeds).
func acquireLock(path string) error {
	for attempt := 0; attempt < lockMaxRetries; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(file, "%d\n", os.Getpid())
			_ = file.Close()
			return nil
		}
		if !os.IsExist(err) {
			return err
		}
		time.Sleep(lockPollInterval)
	}
	return fmt.Errorf("lock timeout: %s", path)
}

func releaseLock(path string) {
	_ = os.Remove(path)
}
