package credstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	creds := Credentials{Username: "alice", Password: "s3cret", Token: "Bearer abc"}
	require.NoError(t, store.Save(creds))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, creds, *got)

	require.NoError(t, store.Delete())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	creds := Credentials{Username: "bob", Password: "hunter2", Token: "Bearer xyz"}
	require.NoError(t, store.Save(creds))
	require.NoError(t, store.Close())

	// The device secret must persist or the sealed blob is unreadable.
	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, creds, *got)
}

func TestSealerRoundTrip(t *testing.T) {
	s := &sealer{secret: []byte("0123456789abcdef0123456789abcdef")}

	plaintext := []byte(`{"username":"alice"}`)
	sealed, err := s.Seal(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "alice")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealerRejectsTampering(t *testing.T) {
	s := &sealer{secret: []byte("0123456789abcdef0123456789abcdef")}

	sealed, err := s.Seal([]byte("payload"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xFF
	_, err = s.Open(sealed)
	assert.Error(t, err)
}

func TestSealerRejectsShortCiphertext(t *testing.T) {
	s := &sealer{secret: []byte("0123456789abcdef0123456789abcdef")}

	_, err := s.Open([]byte("short"))
	assert.Error(t, err)
}
