package drive

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"driftbox/drive-api/internal/kv"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const fileIDLength = 16

// Storage returns the account's storage record, lazily producing an empty
// one when the account has never stored anything.
func (d *Drive) Storage(acc *Account) (*StorageRecord, error) {
	rec, _, err := d.loadStorage(acc)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Upload stores a file's content and metadata, enforcing the quota. The
// payload is written before the storage record is swapped in, so a visible
// metadata entry always has its payload behind it. On any failure the
// payload key is removed again and the caller observes no change.
func (d *Drive) Upload(acc *Account, name, mimeType string, content []byte) (*FileMetadata, error) {
	size := int64(len(content))

	fileID, err := gonanoid.New(fileIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate file ID, %w", err)
	}

	payloadKey := fileKey(acc.Username, acc.Namespace, fileID)
	payloadWritten := false

	cleanup := func() {
		if !payloadWritten {
			return
		}
		if err := d.store.Delete(payloadKey); err != nil {
			zap.L().Error("Failed to clean up payload after aborted upload", zap.Error(err), zap.String("fileID", fileID))
		}
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		rec, version, err := d.loadStorage(acc)
		if err != nil {
			cleanup()
			return nil, err
		}

		if rec.UsedBytes+size > rec.CapacityBytes {
			cleanup()
			return nil, ErrQuotaExceeded
		}

		if !payloadWritten {
			encoded := base64.StdEncoding.EncodeToString(content)
			if err := d.store.Put(payloadKey, []byte(encoded)); err != nil {
				return nil, fmt.Errorf("failed to store payload, %w", err)
			}
			payloadWritten = true
		}

		meta := FileMetadata{
			ID:           fileID,
			Name:         name,
			MimeType:     mimeType,
			Size:         size,
			LastModified: time.Now().UnixMilli(),
		}

		rec.Files = append(rec.Files, meta)
		rec.UsedBytes += size

		raw, err := json.Marshal(rec)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to marshal storage record, %w", err)
		}

		err = d.store.CompareAndSwap(storageKey(acc.Username, acc.Namespace), raw, version)
		if err != nil {
			if errors.Is(err, kv.ErrVersionMismatch) {
				continue
			}
			cleanup()
			return nil, err
		}

		return &meta, nil
	}

	cleanup()
	return nil, fmt.Errorf("failed to upload file, too many concurrent writers")
}

// Delete removes a file's metadata and payload and releases its quota.
func (d *Drive) Delete(acc *Account, fileID string) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		rec, version, err := d.loadStorage(acc)
		if err != nil {
			return err
		}

		idx := -1
		for i, f := range rec.Files {
			if f.ID == fileID {
				idx = i
				break
			}
		}

		if idx < 0 {
			return ErrFileNotFound
		}

		rec.UsedBytes -= rec.Files[idx].Size
		rec.Files = append(rec.Files[:idx], rec.Files[idx+1:]...)

		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal storage record, %w", err)
		}

		err = d.store.CompareAndSwap(storageKey(acc.Username, acc.Namespace), raw, version)
		if err != nil {
			if errors.Is(err, kv.ErrVersionMismatch) {
				continue
			}
			return err
		}

		// Metadata is authoritative; the payload goes second so a crash in
		// between leaves an orphan blob instead of a dangling entry.
		if err := d.store.Delete(fileKey(acc.Username, acc.Namespace, fileID)); err != nil {
			zap.L().Error("Failed to delete payload", zap.Error(err), zap.String("fileID", fileID))
		}

		return nil
	}

	return fmt.Errorf("failed to delete file, too many concurrent writers")
}

// Download returns a file's metadata together with its decoded content.
func (d *Drive) Download(acc *Account, fileID string) (*FileMetadata, []byte, error) {
	rec, _, err := d.loadStorage(acc)
	if err != nil {
		return nil, nil, err
	}

	var meta *FileMetadata
	for i, f := range rec.Files {
		if f.ID == fileID {
			meta = &rec.Files[i]
			break
		}
	}

	if meta == nil {
		return nil, nil, ErrFileNotFound
	}

	raw, _, err := d.store.Get(fileKey(acc.Username, acc.Namespace, fileID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}

	content, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode payload, %w", err)
	}

	return meta, content, nil
}

// Valid sort options for List.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortAZ       = "az"
	SortZA       = "za"
	SortSizeAsc  = "size-asc"
	SortSizeDesc = "size-desc"
)

// List returns a page of the account's files in the requested order.
func (d *Drive) List(acc *Account, sortBy string, page, limit int) ([]FileMetadata, error) {
	rec, _, err := d.loadStorage(acc)
	if err != nil {
		return nil, err
	}

	files := make([]FileMetadata, len(rec.Files))
	copy(files, rec.Files)

	switch sortBy {
	case SortOldest:
		sort.SliceStable(files, func(i, j int) bool { return files[i].LastModified < files[j].LastModified })
	case SortAZ:
		sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	case SortZA:
		sort.SliceStable(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	case SortSizeAsc:
		sort.SliceStable(files, func(i, j int) bool { return files[i].Size < files[j].Size })
	case SortSizeDesc:
		sort.SliceStable(files, func(i, j int) bool { return files[i].Size > files[j].Size })
	default: // SortNewest
		sort.SliceStable(files, func(i, j int) bool { return files[i].LastModified > files[j].LastModified })
	}

	return paginate(files, page, limit), nil
}

// Search filters the account's files by case-insensitive name substring.
func (d *Drive) Search(acc *Account, query string, page, limit int) ([]FileMetadata, error) {
	rec, _, err := d.loadStorage(acc)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)

	var results []FileMetadata
	for _, f := range rec.Files {
		if strings.Contains(strings.ToLower(f.Name), query) {
			results = append(results, f)
		}
	}

	return paginate(results, page, limit), nil
}

func paginate(files []FileMetadata, page, limit int) []FileMetadata {
	if limit <= 0 {
		return files
	}

	start := page * limit
	if start >= len(files) {
		return nil
	}

	end := start + limit
	if end > len(files) {
		end = len(files)
	}

	return files[start:end]
}

func (d *Drive) loadStorage(acc *Account) (*StorageRecord, uint64, error) {
	raw, version, err := d.store.Get(storageKey(acc.Username, acc.Namespace))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return &StorageRecord{CapacityBytes: d.capacity}, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to load storage record, %w", err)
	}

	var rec StorageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal storage record, %w", err)
	}

	return &rec, version, nil
}
