//go:build !windows

package notification

import log "github.com/sirupsen/logrus"

// No dialog here; the error is already in the log and on stderr.
func showBlockingError(title, message string) {
	log.Debugf("%s: %s", title, message)
}
