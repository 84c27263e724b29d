package drive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepOrphans(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 1<<20)
	acc := register(t, d, "alice")

	kept, err := d.Upload(acc, "kept.txt", "text/plain", []byte("still referenced"))
	require.NoError(t, err)

	// A payload blob without a metadata entry, as left behind by a crash
	// between the payload write and the record swap.
	orphanID := strings.Repeat("x", fileIDLength)
	require.NoError(t, d.store.Put(fileKey(acc.Username, acc.Namespace, orphanID), []byte("b3JwaGFu")))

	removed, err := d.SweepOrphans()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, _, err = d.store.Get(fileKey(acc.Username, acc.Namespace, orphanID))
	assert.Error(t, err)

	// The referenced file is untouched
	_, content, err := d.Download(acc, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("still referenced"), content)
	checkInvariant(t, d, acc)
}

func TestSweepOrphansSparesOtherAccountsKeys(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 1<<20)
	alice := register(t, d, "alice")

	// Another account whose username extends alice's key prefix. Its keys
	// match a prefix scan over alice's payloads but carry a longer suffix.
	other := register(t, d, "alice_"+alice.Namespace)
	meta, err := d.Upload(other, "theirs.txt", "text/plain", []byte("not an orphan"))
	require.NoError(t, err)

	removed, err := d.SweepOrphans()
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, content, err := d.Download(other, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("not an orphan"), content)
}

func TestSweepOrphansEmptyStore(t *testing.T) {
	t.Parallel()

	d := newTestDrive(t, 1<<20)

	removed, err := d.SweepOrphans()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
