package health

import (
	"context"

	"github.com/kailas-cloud/termgen/internal/usecase/termgen"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ScanProgress exposes the state of the running scan.
type ScanProgress interface {
	State() termgen.State
}
