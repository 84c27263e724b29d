// Package drive implements the account and file-store core: registration,
// login sessions, quota-enforced uploads and downloads. All state lives in a
// kv.Store; every read-modify-write goes through a compare-and-swap loop so
// concurrent mutations of the same record can't lose updates.
package drive

import (
	"errors"

	"driftbox/drive-api/internal/kv"
	"driftbox/drive-api/pkg/security"
)

// DefaultCapacity is the per-account quota, 1 TiB.
const DefaultCapacity int64 = 1 << 40

var (
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrQuotaExceeded      = errors.New("not enough space")
	ErrFileNotFound       = errors.New("file not found")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// casAttempts bounds the retry loops. Contention on a single account record
// is short-lived, so running out of attempts means something is badly wrong.
const casAttempts = 32

// Drive owns the durable store (accounts, storage records, payloads) and the
// volatile store (login sessions).
type Drive struct {
	store    kv.Store
	sessions kv.Store
	argon    *security.ArgonHash
	capacity int64
}

func New(durable, volatile kv.Store, capacity int64) *Drive {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Drive{
		store:    durable,
		sessions: volatile,
		argon:    security.New(),
		capacity: capacity,
	}
}
