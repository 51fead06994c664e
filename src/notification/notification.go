// Package notification tells the user about failures that happen before the
// tray icon exists.
package notification

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// StartupError reports a fatal startup error and blocks until acknowledged
// where the platform has a dialog.
func StartupError(err error) {
	message := fmt.Sprintf("The trigger engine could not start:\n\n%v", err)
	log.Errorf("startup failed: %v", err)
	showBlockingError("Trigger Engine", message)
}
