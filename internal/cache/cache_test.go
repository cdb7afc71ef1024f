package cache

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashicode/pdfsect/internal/extractor"
)

var _ extractor.Cache = (*Cache)(nil)

func sampleDocs() []extractor.Document {
	return []extractor.Document{
		{PageContent: "Preface\n", Metadata: map[string]string{extractor.MetaSection: "", extractor.MetaIndex: "0"}},
		{PageContent: "Chapter 1\nIt begins.\n", Metadata: map[string]string{extractor.MetaSection: "Chapter 1", extractor.MetaIndex: "1"}},
	}
}

func TestNew_NilFs(t *testing.T) {
	_, err := New(nil, "cache")
	assert.ErrorIs(t, err, ErrNilFs)
}

func TestCache_Miss(t *testing.T) {
	c, err := New(afero.NewMemMapFs(), "cache")
	require.NoError(t, err)

	docs, ok, err := c.Get("report-v1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, docs)
}

func TestCache_PutGet(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := New(fs, "cache")
	require.NoError(t, err)

	require.NoError(t, c.Put("report-v1", sampleDocs()))

	docs, ok, err := c.Get("report-v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleDocs(), docs)

	_, ok, err = c.Get("report-v2")
	require.NoError(t, err)
	assert.False(t, ok)

	files, err := afero.ReadDir(fs, "cache")
	require.NoError(t, err)
	assert.Len(t, files, 1, "temporary file must not remain")
}

func TestCache_PutReplaces(t *testing.T) {
	c, err := New(afero.NewMemMapFs(), "cache")
	require.NoError(t, err)

	require.NoError(t, c.Put("k", sampleDocs()))
	require.NoError(t, c.Put("k", sampleDocs()[:1]))

	docs, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, docs, 1)
}

func TestCache_Delete(t *testing.T) {
	c, err := New(afero.NewMemMapFs(), "cache")
	require.NoError(t, err)

	require.NoError(t, c.Put("k", sampleDocs()))
	require.NoError(t, c.Delete("k"))
	require.NoError(t, c.Delete("k"))

	_, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_EmptyKey(t *testing.T) {
	c, err := New(afero.NewMemMapFs(), "cache")
	require.NoError(t, err)

	_, _, err = c.Get("")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, c.Put("", nil), ErrEmptyKey)
	assert.ErrorIs(t, c.Delete(""), ErrEmptyKey)
}

func TestCache_CorruptEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := New(fs, "cache")
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, c.path("k"), []byte("documents: [unclosed"), 0o644))

	_, _, err = c.Get("k")
	assert.Error(t, err)
}

func TestCache_ConcurrentPutSameKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := New(fs, "cache")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Put("upload-key", sampleDocs())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	docs, ok, err := c.Get("upload-key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleDocs(), docs)

	infos, err := afero.ReadDir(fs, "cache")
	require.NoError(t, err)
	require.Len(t, infos, 1, "temp files must not be left behind")
	assert.Equal(t, ".yaml", filepath.Ext(infos[0].Name()))
}
