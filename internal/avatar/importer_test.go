package avatar

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/openidgate/internal/store/memory"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type uploads struct {
	paths map[string][]byte
	err   error
}

func (u *uploads) StoreItem(_ context.Context, p string, data []byte, _ string) error {
	if u.err != nil {
		return u.err
	}
	if u.paths == nil {
		u.paths = map[string][]byte{}
	}
	u.paths[p] = data
	return nil
}

func TestImport_StoresJPEG(t *testing.T) {
	src := pngBytes(t, 4, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(src)
	}))
	defer srv.Close()

	repo := memory.New()
	up := &uploads{}
	ds := NewDAVStore(repo, up, "/uploads/pictures")
	imp := NewImporter(ds, nil)

	require.NoError(t, imp.Import(context.Background(), 42, srv.URL+"/_avatar.png"))

	rows := repo.Images()
	require.Len(t, rows, 1)
	row := rows[0]
	require.Equal(t, int64(42), row.UserID)
	require.Equal(t, "user", row.ObjectType)
	require.Equal(t, int64(42), row.ObjectID)
	require.Equal(t, 4, row.Width)
	require.Equal(t, 3, row.Height)
	require.Equal(t, "image/jpeg", row.MimeType)
	require.Equal(t, "avatar", row.Type)

	require.Equal(t, "/uploads/pictures/user/"+strconv.FormatInt(row.ID, 10)+".jpg", ds.PathFor("user", row.ID))
	stored, ok := up.paths[ds.PathFor("user", row.ID)]
	require.True(t, ok, "uploaded paths: %v", up.paths)
	_, err := jpeg.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
}

func TestImport_Undecodable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	repo := memory.New()
	imp := NewImporter(NewDAVStore(repo, &uploads{}, ""), nil)
	err := imp.Import(context.Background(), 1, srv.URL)
	require.True(t, errors.Is(err, ErrUndecodable))
	require.Empty(t, repo.Images())
}

func TestImport_FetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	imp := NewImporter(NewDAVStore(memory.New(), &uploads{}, ""), nil)
	require.ErrorContains(t, imp.Import(context.Background(), 1, srv.URL), "status 404")
}

func TestDAVStore_UploadFailureRemovesRow(t *testing.T) {
	repo := memory.New()
	s := NewDAVStore(repo, &uploads{err: errors.New("507 insufficient storage")}, "")
	_, err := s.Store(context.Background(), Metadata{UserID: 1, ObjectType: "user"}, []byte("x"))
	require.Error(t, err)
	require.Empty(t, repo.Images())
}
