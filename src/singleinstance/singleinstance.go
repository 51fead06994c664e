// Package singleinstance keeps one resident trigger engine per user session
// and lets the CLI talk to it over a loopback line protocol:
//
//	PING    -> PONG
//	STATUS  -> OK, then the engine status as JSON
//	RESTART -> OK, or ERROR and a message
//
// Two resident engines would each install a global hook and fire every
// trigger twice, so a second resident refuses to start.
package singleinstance

import (
	"context"
	"errors"

	"trigger-engine/src/engine"
)

const (
	residentHost = "127.0.0.1"

	pingRequest    = "PING\n"
	statusRequest  = "STATUS\n"
	restartRequest = "RESTART\n"
	pongResponse   = "PONG\n"
	okResponse     = "OK\n"
	errorResponse  = "ERROR\n"
)

var ErrNoResident = errors.New("no resident trigger engine found")

// Resident is what the server exposes of the running engine.
type Resident interface {
	Status() engine.Status
	RestartHook(ctx context.Context) error
}
