package artifact

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRenderer []byte

func (s staticRenderer) Render(w io.Writer) error {
	_, err := w.Write(s)
	return err
}

type failingRenderer struct{}

func (failingRenderer) Render(io.Writer) error { return errors.New("render chart: invalid range") }

type recordingUploader struct {
	name string
	body []byte
	url  string
	err  error
	// tempFiles is the content of the temp dir at upload time.
	tempFiles []string
	tempDir   string
}

func (u *recordingUploader) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	u.name = name
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.body = b
	if u.tempDir != "" {
		entries, _ := os.ReadDir(u.tempDir)
		for _, e := range entries {
			u.tempFiles = append(u.tempFiles, e.Name())
		}
	}
	return u.url, u.err
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nchart")

func TestEncode_Inline(t *testing.T) {
	enc := NewInlineEncoder()
	assert.Equal(t, ModeInline, enc.Mode())

	a, err := enc.Encode(context.Background(), staticRenderer(pngBytes))
	require.NoError(t, err)

	assert.Equal(t, ModeInline, a.Mode)
	assert.Empty(t, a.URL)
	assert.Equal(t, int64(len(pngBytes)), a.Size)

	decoded, err := base64.StdEncoding.DecodeString(a.Base64)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, decoded)
}

func TestEncode_InlineRenderError(t *testing.T) {
	_, err := NewInlineEncoder().Encode(context.Background(), failingRenderer{})
	require.Error(t, err)

	var de *DeliveryError
	assert.False(t, errors.As(err, &de), "render failures are not delivery failures")
}

func TestEncode_Upload(t *testing.T) {
	dir := t.TempDir()
	up := &recordingUploader{url: "https://i.example.com/abc.png", tempDir: dir}
	enc, err := NewUploadEncoder(up, dir)
	require.NoError(t, err)

	a, err := enc.Encode(context.Background(), staticRenderer(pngBytes))
	require.NoError(t, err)

	assert.Equal(t, ModeUpload, a.Mode)
	assert.Equal(t, "https://i.example.com/abc.png", a.URL)
	assert.Empty(t, a.Base64)
	assert.Equal(t, int64(len(pngBytes)), a.Size)
	assert.Equal(t, pngBytes, up.body)
	assert.Equal(t, ".png", filepath.Ext(up.name))

	assert.Len(t, up.tempFiles, 1, "image is staged in a temp file during upload")
	assertEmptyDir(t, dir)
}

func TestEncode_UploadFailureStatus(t *testing.T) {
	dir := t.TempDir()
	up := &recordingUploader{
		url: "https://i.example.com/stale.png",
		err: &DeliveryError{Status: http.StatusBadRequest, Diagnostic: "Invalid API v1 key."},
	}
	enc, err := NewUploadEncoder(up, dir)
	require.NoError(t, err)

	a, err := enc.Encode(context.Background(), staticRenderer(pngBytes))
	assert.Nil(t, a, "no URL may be returned when the upload failed")

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, http.StatusBadRequest, de.Status)
	assert.Contains(t, err.Error(), "Invalid API v1 key.")
	assertEmptyDir(t, dir)
}

func TestEncode_UploadTransportError(t *testing.T) {
	dir := t.TempDir()
	up := &recordingUploader{err: errors.New("dial tcp: connection refused")}
	enc, err := NewUploadEncoder(up, dir)
	require.NoError(t, err)

	_, err = enc.Encode(context.Background(), staticRenderer(pngBytes))

	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 0, de.Status)
	assert.Contains(t, err.Error(), "connection refused")
	assertEmptyDir(t, dir)
}

func TestEncode_UploadEmptyURL(t *testing.T) {
	enc, err := NewUploadEncoder(&recordingUploader{}, t.TempDir())
	require.NoError(t, err)

	_, err = enc.Encode(context.Background(), staticRenderer(pngBytes))
	var de *DeliveryError
	assert.True(t, errors.As(err, &de))
}

func TestEncode_UploadRenderErrorRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	up := &recordingUploader{url: "https://i.example.com/x.png"}
	enc, err := NewUploadEncoder(up, dir)
	require.NoError(t, err)

	_, err = enc.Encode(context.Background(), failingRenderer{})
	require.Error(t, err)

	var de *DeliveryError
	assert.False(t, errors.As(err, &de))
	assert.Nil(t, up.body, "uploader must not be called when rendering fails")
	assertEmptyDir(t, dir)
}

func TestNewUploadEncoder_RequiresUploader(t *testing.T) {
	_, err := NewUploadEncoder(nil, "")
	assert.Error(t, err)
}

func TestDeliveryError_Message(t *testing.T) {
	err := &DeliveryError{Status: 502, Diagnostic: "bad gateway"}
	assert.Equal(t, "image upload failed (status 502): bad gateway", err.Error())

	inner := errors.New("timeout")
	err = &DeliveryError{Err: inner}
	assert.Equal(t, "image upload failed: timeout", err.Error())
	assert.ErrorIs(t, err, inner)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be removed")
}

