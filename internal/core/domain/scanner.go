package domain

import "context"

// Host is the part of the build tool a scanner may call back into.
type Host interface {
	// Request asks the host to build source with the named builder and
	// returns the targets that step will produce.
	Request(ctx context.Context, builder string, source Node) ([]Node, error)

	// Warn reports a dependency the scanner could not classify.
	Warn(msg string)
}

// ScanFunc discovers the files node depends on.
type ScanFunc func(ctx context.Context, node Node, env *Env, host Host) ([]Node, error)

// Scanner binds a ScanFunc to the source suffixes it understands.
type Scanner struct {
	Name  string
	Skeys []string
	Scan  ScanFunc
}
