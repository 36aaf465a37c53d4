package filestorage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKey(t *testing.T) {
	now := time.Date(2025, 8, 18, 10, 0, 0, 0, time.UTC)
	key := ReportKey("class-records", 10, ".xlsx", now)

	assert.True(t, strings.HasPrefix(key, "class-records/10/2025/08/18/"), key)
	assert.True(t, strings.HasSuffix(key, ".xlsx"), key)
	assert.NotEqual(t, key, ReportKey("class-records", 10, "xlsx", now))
}

func TestCleanKeyRejectsEscapes(t *testing.T) {
	k, err := cleanKey("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", k)

	_, err = cleanKey("")
	assert.Error(t, err)
	_, err = cleanKey("/")
	assert.Error(t, err)
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	ls, err := NewLocalStorage(base)
	require.NoError(t, err)

	info, err := ls.Save(ctx, "class-records/10/report.xlsx", "application/octet-stream", []byte("workbook"))
	require.NoError(t, err)
	assert.Equal(t, "class-records/10/report.xlsx", info.Key)
	assert.Equal(t, int64(8), info.Size)
	assert.Equal(t, filepath.Join(base, "class-records", "10", "report.xlsx"), info.Location)

	rc, err := ls.Open(ctx, info.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "workbook", string(data))

	entries, err := os.ReadDir(filepath.Join(base, "class-records", "10"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary upload files must not remain")

	require.NoError(t, ls.Delete(ctx, info.Key))
	require.NoError(t, ls.Delete(ctx, info.Key))
	_, err = ls.Open(ctx, info.Key)
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoragePrefixesKeys(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	st := NewS3StorageWithClient(fake, "crms-reports", "/archive/")

	info, err := st.Save(ctx, "10/report.xlsx", "application/octet-stream", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "10/report.xlsx", info.Key)
	assert.Equal(t, "s3://crms-reports/archive/10/report.xlsx", info.Location)
	assert.Contains(t, fake.objects, "crms-reports/archive/10/report.xlsx")

	rc, err := st.Open(ctx, info.Key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "x", string(data))

	require.NoError(t, st.Delete(ctx, "10/report.xlsx"))
	assert.Empty(t, fake.objects)
}
