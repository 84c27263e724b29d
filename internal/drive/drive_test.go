package drive

import (
	"bytes"
	"sync"
	"testing"

	"driftbox/drive-api/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDrive(t *testing.T, capacity int64) *Drive {
	t.Helper()
	return New(kv.NewMem(), kv.NewMem(), capacity)
}

func register(t *testing.T, d *Drive, username string) *Account {
	t.Helper()

	acc, err := d.Register(username, "correct horse battery")
	require.NoError(t, err)

	return acc
}

// checkInvariant asserts UsedBytes == sum of file sizes, which must hold
// after every mutation.
func checkInvariant(t *testing.T, d *Drive, acc *Account) {
	t.Helper()

	rec, err := d.Storage(acc)
	require.NoError(t, err)

	var sum int64
	for _, f := range rec.Files {
		sum += f.Size
	}

	assert.Equal(t, sum, rec.UsedBytes)
	assert.GreaterOrEqual(t, rec.UsedBytes, int64(0))
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)

	first, err := d.Register("alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)
	assert.Len(t, first.Namespace, namespaceLength)

	_, err = d.Register("alice", "differentpass")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	// Case-sensitive matching: "Alice" is a different account
	_, err = d.Register("Alice", "password123")
	assert.NoError(t, err)

	// Only one "alice" record persisted
	acc, _, err := d.Login("alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, first.Namespace, acc.Namespace)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)
	register(t, d, "alice")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "alice", "correct horse battery", nil},
		{"wrong password", "alice", "wrong", ErrInvalidCredentials},
		{"unknown user", "bob", "correct horse battery", ErrInvalidCredentials},
		{"case mismatch", "Alice", "correct horse battery", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, token, err := d.Login(tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.username, acc.Username)
			assert.NotEmpty(t, token)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)
	register(t, d, "alice")

	_, token, err := d.Login("alice", "correct horse battery")
	require.NoError(t, err)

	acc, err := d.Current(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Username)

	require.NoError(t, d.Logout(token))

	_, err = d.Current(token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// Logout is idempotent
	require.NoError(t, d.Logout(token))

	_, err = d.Current("never-issued")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)
	acc := register(t, d, "alice")

	content := []byte("some file content \x00\x01\x02 with binary bytes")

	meta, err := d.Upload(acc, "notes.txt", "text/plain", content)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), meta.Size)
	assert.NotEmpty(t, meta.ID)
	checkInvariant(t, d, acc)

	gotMeta, got, err := d.Download(acc, meta.ID)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, got))
	assert.Equal(t, "notes.txt", gotMeta.Name)
	assert.Equal(t, "text/plain", gotMeta.MimeType)
}

func TestQuotaInvariantAcrossOperations(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 10_000)
	acc := register(t, d, "alice")

	a, err := d.Upload(acc, "a", "application/octet-stream", make([]byte, 3000))
	require.NoError(t, err)
	checkInvariant(t, d, acc)

	b, err := d.Upload(acc, "b", "application/octet-stream", make([]byte, 4000))
	require.NoError(t, err)
	checkInvariant(t, d, acc)

	require.NoError(t, d.Delete(acc, a.ID))
	checkInvariant(t, d, acc)

	_, err = d.Upload(acc, "c", "application/octet-stream", make([]byte, 5000))
	require.NoError(t, err)
	checkInvariant(t, d, acc)

	require.NoError(t, d.Delete(acc, b.ID))
	checkInvariant(t, d, acc)

	rec, err := d.Storage(acc)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), rec.UsedBytes)
	assert.Len(t, rec.Files, 1)
}

func TestQuotaBoundary(t *testing.T) {
	t.Parallel()

	const capacity = 4096

	d := newTestDrive(t, capacity)
	acc := register(t, d, "alice")

	_, err := d.Upload(acc, "half", "application/octet-stream", make([]byte, 1000))
	require.NoError(t, err)

	// One byte over the remaining space must fail without any change
	_, err = d.Upload(acc, "over", "application/octet-stream", make([]byte, capacity-1000+1))
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	rec, err := d.Storage(acc)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), rec.UsedBytes)
	assert.Len(t, rec.Files, 1)

	// Exactly the remaining space must succeed
	_, err = d.Upload(acc, "exact", "application/octet-stream", make([]byte, capacity-1000))
	require.NoError(t, err)

	rec, err = d.Storage(acc)
	require.NoError(t, err)
	assert.Equal(t, int64(capacity), rec.UsedBytes)
	checkInvariant(t, d, acc)
}

func TestDeleteAbsent(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)
	acc := register(t, d, "alice")

	meta, err := d.Upload(acc, "keep.txt", "text/plain", []byte("keep me"))
	require.NoError(t, err)

	err = d.Delete(acc, "no-such-id")
	assert.ErrorIs(t, err, ErrFileNotFound)

	rec, err := d.Storage(acc)
	require.NoError(t, err)
	assert.Len(t, rec.Files, 1)
	assert.Equal(t, meta.Size, rec.UsedBytes)
}

func TestDownloadAbsent(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)
	acc := register(t, d, "alice")

	_, _, err := d.Download(acc, "no-such-id")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

// Two uploads racing on the same account must both be reflected in the
// storage record, the read-modify-write is serialized by CompareAndSwap.
func TestConcurrentUploadsDontLoseUpdates(t *testing.T) {
	t.Parallel()

	const workers = 8
	const fileSize = 1024

	d := newTestDrive(t, 0)
	acc := register(t, d, "alice")

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()

			_, err := d.Upload(acc, "file", "application/octet-stream", make([]byte, fileSize))
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	rec, err := d.Storage(acc)
	require.NoError(t, err)
	assert.Len(t, rec.Files, workers)
	assert.Equal(t, int64(workers*fileSize), rec.UsedBytes)
}

func TestConcurrentUploadsAndDeletes(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)
	acc := register(t, d, "alice")

	var metas []*FileMetadata
	for i := 0; i < 4; i++ {
		m, err := d.Upload(acc, "seed", "application/octet-stream", make([]byte, 100))
		require.NoError(t, err)
		metas = append(metas, m)
	}

	var wg sync.WaitGroup
	wg.Add(len(metas) + 4)

	for _, m := range metas {
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, d.Delete(acc, id))
		}(m.ID)
	}

	for i := 0; i < 4; i++ {
		go func() {
			defer wg.Done()

			_, err := d.Upload(acc, "new", "application/octet-stream", make([]byte, 200))
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	rec, err := d.Storage(acc)
	require.NoError(t, err)
	assert.Len(t, rec.Files, 4)
	assert.Equal(t, int64(4*200), rec.UsedBytes)
	checkInvariant(t, d, acc)
}

func TestListAndSearch(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)
	acc := register(t, d, "alice")

	names := []string{"report.pdf", "photo.jpg", "Report-final.pdf", "song.mp3"}
	for i, n := range names {
		_, err := d.Upload(acc, n, "application/octet-stream", make([]byte, (i+1)*10))
		require.NoError(t, err)
	}

	bySize, err := d.List(acc, SortSizeDesc, 0, 10)
	require.NoError(t, err)
	require.Len(t, bySize, 4)
	assert.Equal(t, "song.mp3", bySize[0].Name)

	az, err := d.List(acc, SortAZ, 0, 2)
	require.NoError(t, err)
	require.Len(t, az, 2)
	assert.Equal(t, "Report-final.pdf", az[0].Name)

	// Search is case-insensitive substring matching
	results, err := d.Search(acc, "report", 0, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = d.Search(acc, "nothing", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStorageIsolatedPerAccount(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 0)
	alice := register(t, d, "alice")
	bob := register(t, d, "bob")

	meta, err := d.Upload(alice, "secret.txt", "text/plain", []byte("alice only"))
	require.NoError(t, err)

	_, _, err = d.Download(bob, meta.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	rec, err := d.Storage(bob)
	require.NoError(t, err)
	assert.Empty(t, rec.Files)
	assert.Equal(t, int64(0), rec.UsedBytes)
}
