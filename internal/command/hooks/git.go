package hooks

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const gitTimeout = 5 * time.Second

// gitState returns the current branch and dirty-file count, best effort.
// Missing git or a non-repo directory is not an error; the context block
// simply omits the line.
func gitState(dir string) (branch string, dirty int, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD").Output()
	if err != nil {
		return "", 0, false
	}
	branch = strings.TrimSpace(string(out))

	status, err := exec.CommandContext(ctx, "git", "-C", dir, "status", "--porcelain").Output()
	if err != nil {
		return branch, 0, true
	}
	for _, line := range strings.Split(string(status), "\n") {
		if strings.TrimSpace(line) != "" {
			dirty++
		}
	}
	return branch, dirty, true
}
