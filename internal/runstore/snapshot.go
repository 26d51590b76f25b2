package runstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yewpar-go/yewpar/internal/storage"
)

// ArchiveSnapshot uploads a JSON-serialised run snapshot (the CLI passes
// the marshalled Run record: skeleton, problem, depths, timing, counts
// and incumbent JSON, and status) to object storage under a key derived
// from the run UUID, using whichever Storage backend it is given (local
// disk or COS).
func ArchiveSnapshot(ctx context.Context, store storage.Storage, uuid string, snapshot []byte) error {
	key := fmt.Sprintf("tree-search-runs/%s.json", uuid)
	if err := store.Upload(ctx, key, bytes.NewReader(snapshot)); err != nil {
		return fmt.Errorf("failed to archive run snapshot: %w", err)
	}
	return nil
}
