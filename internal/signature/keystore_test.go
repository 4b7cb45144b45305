package signature

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

func TestFileKeystore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips key material", func(t *testing.T) {
		ks, err := NewFileKeystore(t.TempDir())
		require.NoError(t, err)

		key := domain.NewKey("SCH", "001")
		require.NoError(t, ks.Put(ctx, key, []byte("pem material")))

		got, err := ks.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, []byte("pem material"), got)
	})

	t.Run("missing key is ErrNotFound", func(t *testing.T) {
		ks, err := NewFileKeystore(t.TempDir())
		require.NoError(t, err)

		_, err = ks.Get(ctx, domain.NewKey("SCH", "missing"))
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("key files are private to the owner", func(t *testing.T) {
		dir := t.TempDir()
		ks, err := NewFileKeystore(dir)
		require.NoError(t, err)

		key := domain.NewKey("SCH", "002")
		require.NoError(t, ks.Put(ctx, key, []byte("secret")))

		info, err := os.Stat(filepath.Join(dir, "SCH_002_private.pem"))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("put overwrites the previous key", func(t *testing.T) {
		ks, err := NewFileKeystore(t.TempDir())
		require.NoError(t, err)

		key := domain.NewKey("SCH", "003")
		require.NoError(t, ks.Put(ctx, key, []byte("old")))
		require.NoError(t, ks.Put(ctx, key, []byte("new")))

		got, err := ks.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, []byte("new"), got)
	})
}
