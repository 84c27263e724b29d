package drive

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SweepOrphans deletes payload blobs that no storage record references and
// returns how many were removed. An upload aborted between writing its
// payload and swapping in the metadata, or a crash between a delete's
// metadata swap and its payload removal, leaves such blobs behind.
//
// Must run before uploads are accepted: an in-flight upload writes its
// payload ahead of its metadata and would look like an orphan here.
func (d *Drive) SweepOrphans() (int, error) {
	accounts, _, err := d.loadAccounts()
	if err != nil {
		return 0, err
	}

	removed := 0

	for i := range accounts {
		acc := accounts[i].account()

		rec, _, err := d.loadStorage(acc)
		if err != nil {
			return removed, err
		}

		known := make(map[string]struct{}, len(rec.Files))
		for _, f := range rec.Files {
			known[f.ID] = struct{}{}
		}

		prefix := fileKey(acc.Username, acc.Namespace, "")

		keys, err := d.store.Keys(prefix)
		if err != nil {
			return removed, fmt.Errorf("failed to list payload keys, %w", err)
		}

		for _, key := range keys {
			fileID := strings.TrimPrefix(key, prefix)

			// A shorter username plus namespace can produce a prefix of
			// another account's keys. File IDs have a fixed length, so
			// anything longer belongs to someone else.
			if len(fileID) != fileIDLength {
				continue
			}

			if _, ok := known[fileID]; ok {
				continue
			}

			if err := d.store.Delete(key); err != nil {
				return removed, fmt.Errorf("failed to delete orphaned payload, %w", err)
			}

			zap.L().Warn("Removed orphaned payload", zap.String("username", acc.Username), zap.String("fileID", fileID))
			removed++
		}
	}

	return removed, nil
}
