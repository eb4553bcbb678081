package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadDownloadList(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://reports.local")
	require.NoError(t, err)

	for _, key := range []string{"team-counts/b.json", "team-counts/a.json", "other/c.json"} {
		resp, err := s.Upload(ctx, &UploadRequest{Key: key, Reader: strings.NewReader(`{"ok":true}`)})
		require.NoError(t, err)
		assert.Equal(t, int64(11), resp.Size)
		assert.Equal(t, "http://reports.local/"+key, resp.URL)
	}

	files, err := s.ListFiles(ctx, "team-counts/")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "team-counts/a.json", files[0].Key)
	assert.Equal(t, "team-counts/b.json", files[1].Key)

	dl, err := s.Download(ctx, "team-counts/a.json")
	require.NoError(t, err)
	defer dl.Reader.Close()
	body, err := io.ReadAll(dl.Reader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "application/json", dl.ContentType)
}

func TestLocalStorage_MissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.Download(ctx, "nope.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.Upload(ctx, &UploadRequest{Key: "x.json", Reader: strings.NewReader("{}")})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "x.json"))
	require.NoError(t, s.Delete(ctx, "x.json"))

	_, err = s.Download(ctx, "x.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), &UploadRequest{Key: "../escape.json", Reader: strings.NewReader("{}")})
	assert.Error(t, err)
}
