package imagehost

import (
	"context"
	"fmt"
	"io"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/ehr/centile/internal/platform/artifact"
	"github.com/ehr/centile/internal/platform/google"
)

const discardTimeout = 10 * time.Second

// DriveUploader stores images in Google Drive. When public is set, the file
// is shared with anyone holding the link.
type DriveUploader struct {
	svc      *drive.Service
	folderID string
	public   bool
}

// NewDriveUploader returns an uploader writing into folderID ("" means the
// service account's root).
func NewDriveUploader(svc *drive.Service, folderID string, public bool) *DriveUploader {
	return &DriveUploader{svc: svc, folderID: folderID, public: public}
}

// Upload implements artifact.Uploader.
func (u *DriveUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	meta := &drive.File{Name: name, MimeType: artifact.ContentType}
	if u.folderID != "" {
		meta.Parents = []string{u.folderID}
	}

	f, err := u.svc.Files.Create(meta).
		Media(r, googleapi.ContentType(artifact.ContentType)).
		Fields("id", "webViewLink", "webContentLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", driveError(err)
	}

	if u.public {
		perm := &drive.Permission{Type: "anyone", Role: "reader"}
		if _, err := u.svc.Permissions.Create(f.Id, perm).Context(ctx).Do(); err != nil {
			u.discard(ctx, f.Id)
			return "", driveError(err)
		}
	}

	switch {
	case f.WebContentLink != "":
		return f.WebContentLink, nil
	case f.WebViewLink != "":
		return f.WebViewLink, nil
	case f.Id != "":
		return fmt.Sprintf("https://drive.google.com/uc?id=%s", f.Id), nil
	default:
		return "", &artifact.DeliveryError{Diagnostic: "drive returned no file id"}
	}
}

// discard removes a file that could not be shared. It runs even when ctx is
// already done, and its own failure is not reported.
func (u *DriveUploader) discard(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	_ = u.svc.Files.Delete(id).Context(ctx).Do()
}

func driveError(err error) error {
	status, diag := google.Diagnostic(err)
	if status == 0 {
		return &artifact.DeliveryError{Err: err}
	}
	return &artifact.DeliveryError{Status: status, Diagnostic: diag}
}
