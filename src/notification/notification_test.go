//go:build !windows

package notification

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestStartupErrorLogs(t *testing.T) {
	var buf bytes.Buffer
	prev := log.StandardLogger().Out
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	StartupError(errors.New("port busy"))
	if !strings.Contains(buf.String(), "startup failed: port busy") {
		t.Errorf("log = %q, expected the startup error", buf.String())
	}
}
