package server

import "context"

type Server interface {
	Options() Options
	Start() error
	Stop(ctx context.Context) error
	// Err delivers the error that ended serving early, and is closed once serving stops.
	Err() <-chan error
}
