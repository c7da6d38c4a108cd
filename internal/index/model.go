package index

import (
	"sync"
	"sync/atomic"

	"github.com/ignitekv/ignitekv/pkg/capability"
	"go.uber.org/zap"
)

// Index is the in-memory hash table mapping live keys to the log extent
// holding their most recent Set. It is rebuilt from the log at open and
// never persisted on its own — the log is the only source of truth.
type Index struct {
	dataDir string                        // Directory the index was built for, kept for diagnostics.
	log     *zap.SugaredLogger            // Structured logger.
	extents map[string]capability.Extent  // Maps live keys to their log extent.
	mu      sync.RWMutex                  // Protects extents.
	closed  atomic.Bool                   // Whether Close has run.
}

// Config encapsulates the configuration parameters required to initialize
// an Index.
type Config struct {
	DataDir string
	Logger  *zap.SugaredLogger
}
