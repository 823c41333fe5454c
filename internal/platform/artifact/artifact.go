// Package artifact serializes a rendered chart and delivers it, either inline
// as base64 text or by handing the image to an upload collaborator that
// returns a hosted link. The delivery mode is fixed when the Encoder is built.
package artifact

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// Mode is the delivery mode of an Encoder.
type Mode string

const (
	ModeInline Mode = "inline"
	ModeUpload Mode = "upload"
)

// ContentType of every artifact.
const ContentType = "image/png"

// Renderer writes an encoded image.
type Renderer interface {
	Render(w io.Writer) error
}

// Uploader hands image bytes to an external host and returns the hosted URL.
// Implementations report a rejected upload as *DeliveryError.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// Artifact is the delivered chart. Exactly one of Base64 and URL is set,
// according to Mode.
type Artifact struct {
	Mode   Mode
	Base64 string
	URL    string
	Size   int64
}

// DeliveryError reports that the image was encoded but the upload failed.
type DeliveryError struct {
	// Status is the upstream HTTP status, or 0 if no response was received.
	Status int
	// Diagnostic is the upstream's explanation, when it gave one.
	Diagnostic string
	Err        error
}

func (e *DeliveryError) Error() string {
	msg := "image upload failed"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeliveryError) Unwrap() error { return e.Err }

var errEmptyURL = errors.New("uploader returned an empty url")

// Encoder renders charts and delivers them in its configured mode.
type Encoder struct {
	mode     Mode
	uploader Uploader
	tempDir  string
}

// NewInlineEncoder returns an Encoder that returns base64 PNG payloads.
func NewInlineEncoder() *Encoder {
	return &Encoder{mode: ModeInline}
}

// NewUploadEncoder returns an Encoder that writes each PNG to a temporary
// file in tempDir ("" means os.TempDir) and uploads it.
func NewUploadEncoder(u Uploader, tempDir string) (*Encoder, error) {
	if u == nil {
		return nil, errors.New("upload mode requires an uploader")
	}
	return &Encoder{mode: ModeUpload, uploader: u, tempDir: tempDir}, nil
}

// Mode returns the delivery mode.
func (e *Encoder) Mode() Mode {
	return e.mode
}

// Encode renders r and delivers it.
func (e *Encoder) Encode(ctx context.Context, r Renderer) (*Artifact, error) {
	if e.mode == ModeUpload {
		return e.upload(ctx, r)
	}
	return e.inline(r)
}

func (e *Encoder) inline(r Renderer) (*Artifact, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return nil, err
	}
	return &Artifact{
		Mode:   ModeInline,
		Base64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Size:   int64(buf.Len()),
	}, nil
}

func (e *Encoder) upload(ctx context.Context, r Renderer) (*Artifact, error) {
	f, err := os.CreateTemp(e.tempDir, "centile-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	if err := r.Render(f); err != nil {
		return nil, err
	}
	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("temp image: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("temp image: %w", err)
	}

	name := uuid.NewString() + ".png"
	url, err := e.uploader.Upload(ctx, name, f)
	if err != nil {
		var de *DeliveryError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, &DeliveryError{Err: err}
	}
	if url == "" {
		return nil, &DeliveryError{Err: errEmptyURL}
	}

	return &Artifact{Mode: ModeUpload, URL: url, Size: size}, nil
}
