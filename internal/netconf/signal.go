package netconf

import (
	"errors"
	"fmt"
	"path/filepath"
)

// dailyMarkerLayout names the marker file; its date suppresses the daily
// signal pass until the local date rolls over.
const dailyMarkerLayout = ".radius.2006-01-02"

// SignalAll delivers each daemon's reload signal to every matching process.
// Every daemon is attempted; any failed delivery makes the whole operation
// fail with the failures joined.
func (c *Compiler) SignalAll() error {
	var errs []error
	for _, d := range c.daemons {
		pids, err := c.signaler.PIDs(d.Name)
		if err != nil {
			c.logger.Warn("signal failed", "daemon", d.Name, "error", err)
			errs = append(errs, fmt.Errorf("resolving %s: %w", d.Name, err))
			continue
		}
		for _, pid := range pids {
			if err := c.signaler.Signal(pid, d.Signal); err != nil {
				c.logger.Warn("signal failed", "daemon", d.Name, "pid", pid, "error", err)
				errs = append(errs, newSignalError(d, pid, err))
				continue
			}
			c.logger.Debug("daemon signaled", "daemon", d.String(), "pid", pid)
		}
	}
	return errors.Join(errs...)
}

// DailyMarker returns the marker path for the current date.
func (c *Compiler) DailyMarker() string {
	return filepath.Join(c.paths.ScratchDir, c.clock.Now().Format(dailyMarkerLayout))
}

// DailyPass signals all daemons once per calendar day regardless of whether
// the configuration changed. It reports whether the pass ran. Signal and
// marker write failures are logged, not returned.
func (c *Compiler) DailyPass() (bool, error) {
	marker := c.DailyMarker()
	exists, err := c.fsmgr.Exists(marker)
	if err != nil {
		return false, fmt.Errorf("checking daily marker: %w", err)
	}
	if exists {
		return false, nil
	}

	c.logger.Info("running daily operations", "marker", marker)
	if err := c.SignalAll(); err != nil {
		c.logger.Warn("failed signaling daily", "error", err)
	}
	if err := c.fsmgr.WriteFile(marker, []byte("done")); err != nil {
		c.logger.Warn("unable to write daily indicator", "path", marker, "error", err)
	}
	return true, nil
}
