package storage_manager //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileProvider(t *testing.T) {
	provider := NewLocalFileProvider(t.TempDir())
	ctx := context.Background()

	t.Run("write and read", func(t *testing.T) {
		require.NoError(t, provider.Write(ctx, "records/profile.json", []byte(`{"name":"Min-ji"}`)))

		data, err := provider.Read(ctx, "records/profile.json")
		require.NoError(t, err)
		assert.Equal(t, `{"name":"Min-ji"}`, string(data))
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := provider.Exists(ctx, "records/profile.json")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = provider.Exists(ctx, "records/missing.json")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("read missing file errors", func(t *testing.T) {
		_, err := provider.Read(ctx, "records/missing.json")
		assert.Error(t, err)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, provider.Write(ctx, "records/tmp.json", []byte("x")))
		require.NoError(t, provider.Delete(ctx, "records/tmp.json"))
		require.NoError(t, provider.Delete(ctx, "records/tmp.json"))

		exists, err := provider.Exists(ctx, "records/tmp.json")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("list matches prefix", func(t *testing.T) {
		require.NoError(t, provider.Write(ctx, "list/a.json", []byte("a")))
		require.NoError(t, provider.Write(ctx, "list/b.json", []byte("b")))
		require.NoError(t, provider.Write(ctx, "other/c.json", []byte("c")))

		files, err := provider.List(ctx, "list")
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("list missing prefix returns empty", func(t *testing.T) {
		files, err := provider.List(ctx, "nothing-here")
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestPrefixedFileProvider(t *testing.T) {
	base := NewLocalFileProvider(t.TempDir())
	prefixed := NewPrefixedFileProvider(base, "records")
	ctx := context.Background()

	t.Run("writes land under the prefix", func(t *testing.T) {
		require.NoError(t, prefixed.Write(ctx, "memories.json", []byte("[]")))

		data, err := base.Read(ctx, "records/memories.json")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("reads resolve through the prefix", func(t *testing.T) {
		data, err := prefixed.Read(ctx, "memories.json")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("list strips the prefix from results", func(t *testing.T) {
		require.NoError(t, prefixed.Write(ctx, "settings.json", []byte("{}")))

		files, err := prefixed.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, files, "memories.json")
		assert.Contains(t, files, "settings.json")
	})

	t.Run("empty prefix passes through", func(t *testing.T) {
		passthrough := NewPrefixedFileProvider(base, "")
		require.NoError(t, passthrough.Write(ctx, "direct.json", []byte("1")))

		data, err := base.Read(ctx, "direct.json")
		require.NoError(t, err)
		assert.Equal(t, "1", string(data))
	})
}

func TestStorageManager(t *testing.T) {
	t.Run("local backend", func(t *testing.T) {
		manager, err := New(Config{
			Backend:     BackendLocal,
			LocalConfig: &LocalConfig{BaseDir: t.TempDir()},
		})
		require.NoError(t, err)
		assert.Equal(t, BackendLocal, manager.Backend())

		provider := manager.GetProvider("records")
		ctx := context.Background()
		require.NoError(t, provider.Write(ctx, "test.json", []byte("{}")))

		exists, err := manager.GetRootProvider().Exists(ctx, "records/test.json")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("local backend requires base dir", func(t *testing.T) {
		_, err := New(Config{Backend: BackendLocal, LocalConfig: &LocalConfig{}})
		assert.Error(t, err)

		_, err = New(Config{Backend: BackendLocal})
		assert.Error(t, err)
	})

	t.Run("s3 backend requires bucket and client", func(t *testing.T) {
		_, err := New(Config{Backend: BackendS3})
		assert.Error(t, err)

		_, err = New(Config{Backend: BackendS3, S3Config: &S3Config{}})
		assert.Error(t, err)

		_, err = New(Config{Backend: BackendS3, S3Config: &S3Config{Bucket: "b"}})
		assert.Error(t, err)
	})

	t.Run("postgres backend requires config", func(t *testing.T) {
		_, err := New(Config{Backend: BackendPostgres})
		assert.Error(t, err)

		_, err = New(Config{Backend: BackendPostgres, PostgresConfig: &PostgresConfig{}})
		assert.Error(t, err)
	})

	t.Run("unknown backend errors", func(t *testing.T) {
		_, err := New(Config{Backend: "tape"})
		assert.Error(t, err)
	})

	t.Run("empty namespace returns root provider", func(t *testing.T) {
		base := NewLocalFileProvider(t.TempDir())
		manager := NewWithProvider(base)
		assert.Equal(t, base, manager.GetProvider(""))
	})
}
