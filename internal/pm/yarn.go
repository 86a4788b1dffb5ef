package pm

import (
	"context"

	lserr "git.home.luguber.info/inful/locksync/internal/errors"
	"git.home.luguber.info/inful/locksync/internal/lockfile"
)

// Yarn refreshes yarn.lock via the yarn binary.
type Yarn struct {
	runner CommandRunner
}

// NewYarn creates the yarn adapter.
func NewYarn(runner CommandRunner) *Yarn { return &Yarn{runner: runner} }

// Manager implements Adapter.
func (y *Yarn) Manager() string { return ManagerYarn }

// Refresh runs an install in lockfile-update mode. Yarn creates the lockfile
// when missing, so no existence probe is needed.
func (y *Yarn) Refresh(ctx context.Context, root string) (string, error) {
	out, err := y.runner.Run(ctx, root, "yarn", "install", "--mode", "update-lockfile")
	if err != nil {
		return "", lserr.ToolError(err, "yarn", out)
	}
	return lockfile.YarnFileName, nil
}
