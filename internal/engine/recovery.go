package engine

import (
	"github.com/ignitekv/ignitekv/internal/index"
	"github.com/ignitekv/ignitekv/internal/record"
	"github.com/ignitekv/ignitekv/internal/storage"
	"github.com/ignitekv/ignitekv/pkg/capability"
)

// recoverIndex rebuilds idx by scanning l from the beginning, applying
// every Set and Remove in the order they were written. It returns the
// total number of commands replayed, which becomes the engine's starting
// commandsTotal — the same counter a fresh run of the process would have
// accumulated if it had never restarted.
func recoverIndex(l *storage.Log, idx *index.Index) (int64, error) {
	var total int64

	err := l.Scan(func(cmd record.Command, ext capability.Extent) error {
		total++
		switch cmd.Kind {
		case record.KindSet:
			idx.Set(cmd.Key, ext)
		case record.KindRemove:
			// A Remove record for a key the index no longer tracks is not
			// an error during recovery: it just means an earlier Remove
			// (or a compaction boundary) already accounted for it.
			_ = idx.Remove(cmd.Key)
		}
		return nil
	})

	return total, err
}
