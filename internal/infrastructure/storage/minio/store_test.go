package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

type fakeAPI struct {
	objects map[string][]byte
	stat    map[string]miniogo.ObjectInfo
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		objects: make(map[string][]byte),
		stat:    make(map[string]miniogo.ObjectInfo),
	}
}

func (f *fakeAPI) BucketExists(context.Context, string) (bool, error) { return true, nil }

func (f *fakeAPI) MakeBucket(context.Context, string, miniogo.MakeBucketOptions) error {
	return nil
}

func (f *fakeAPI) PutObject(_ context.Context, _ string, object string, reader io.Reader, _ int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return miniogo.UploadInfo{}, err
	}
	f.objects[object] = data
	f.stat[object] = miniogo.ObjectInfo{
		Key:         object,
		Size:        int64(len(data)),
		ContentType: opts.ContentType,
	}
	return miniogo.UploadInfo{Key: object, Size: int64(len(data))}, nil
}

func (f *fakeAPI) GetObject(context.Context, string, string, miniogo.GetObjectOptions) (*miniogo.Object, error) {
	return nil, nil
}

func (f *fakeAPI) RemoveObject(_ context.Context, _ string, object string, _ miniogo.RemoveObjectOptions) error {
	delete(f.objects, object)
	delete(f.stat, object)
	return nil
}

func (f *fakeAPI) StatObject(_ context.Context, _ string, object string, _ miniogo.StatObjectOptions) (miniogo.ObjectInfo, error) {
	info, ok := f.stat[object]
	if !ok {
		return miniogo.ObjectInfo{}, miniogo.ErrorResponse{Code: "NoSuchKey"}
	}
	return info, nil
}

func (f *fakeAPI) PresignedGetObject(_ context.Context, bucket, object string, _ time.Duration, _ url.Values) (*url.URL, error) {
	return url.Parse("https://minio.local/" + bucket + "/" + object + "?signed=1")
}

func (f *fakeAPI) ListObjects(_ context.Context, _ string, opts miniogo.ListObjectsOptions) <-chan miniogo.ObjectInfo {
	ch := make(chan miniogo.ObjectInfo)
	go func() {
		defer close(ch)
		for key, info := range f.stat {
			if len(opts.Prefix) == 0 || (len(key) >= len(opts.Prefix) && key[:len(opts.Prefix)] == opts.Prefix) {
				ch <- info
			}
		}
	}()
	return ch
}

func newTestStore() (*Store, *fakeAPI) {
	api := newFakeAPI()
	return NewStoreWithAPI(api, "attachments", time.Hour, logging.NewNopLogger()), api
}

func TestCoverPhotoKey(t *testing.T) {
	key := CoverPhotoKey("comp-1", "Front View.JPG")
	assert.Equal(t, "comps/comp-1/cover.jpg", key)

	// no extension
	assert.Equal(t, "comps/comp-1/cover", CoverPhotoKey("comp-1", "photo"))
}

func TestAttachmentKey_StripsDirectories(t *testing.T) {
	key := AttachmentKey("apr-1", "../../etc/passwd")
	assert.Equal(t, "appraisals/apr-1/attachments/passwd", key)
}

func TestStore_UploadStatDelete(t *testing.T) {
	store, api := newTestStore()
	ctx := context.Background()

	data := []byte("fake image bytes")
	key := CoverPhotoKey("comp-9", "cover.png")
	require.NoError(t, store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "image/png"))
	assert.Equal(t, data, api.objects[key])

	info, err := store.Stat(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Stat(ctx, key)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAttachmentNotFound))
}

func TestStore_PresignGet(t *testing.T) {
	store, _ := newTestStore()

	u, err := store.PresignGet(context.Background(), "comps/c1/cover.jpg")
	require.NoError(t, err)
	assert.Contains(t, u, "attachments/comps/c1/cover.jpg")
}

func TestStore_ListAttachments(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	id := common.ID("apr-7")
	for _, name := range []string{"deed.pdf", "survey.pdf"} {
		key := AttachmentKey(id, name)
		require.NoError(t, store.Upload(ctx, key, bytes.NewReader([]byte("x")), 1, "application/pdf"))
	}
	// Object for another appraisal must not appear.
	require.NoError(t, store.Upload(ctx, AttachmentKey("other", "a.pdf"), bytes.NewReader([]byte("x")), 1, "application/pdf"))

	out, err := store.ListAttachments(ctx, id)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
