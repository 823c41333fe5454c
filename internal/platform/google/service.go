// Package google builds authenticated Google API clients from service account
// credentials and maps Google API errors onto errors the rest of the service
// can reason about.
package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account. Sheets is read-only; Drive is
// only needed when charts are uploaded.
var (
	SheetsScopes = []string{sheets.SpreadsheetsReadonlyScope}
	DriveScopes  = []string{drive.DriveFileScope}
)

// NewTokenSource creates an oauth2.TokenSource from service account JSON.
// The returned TokenSource can be used with option.WithTokenSource() when
// creating Google API services.
func NewTokenSource(ctx context.Context, credentialsJSON []byte, scopes ...string) (oauth2.TokenSource, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("google: empty service account credentials")
	}
	cfg, err := googleoauth.JWTConfigFromJSON(credentialsJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("google: parse service account credentials: %w", err)
	}
	return cfg.TokenSource(ctx), nil
}

// NewSheetsService creates a Google Sheets API service using the provided TokenSource.
func NewSheetsService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*sheets.Service, error) {
	return sheets.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

// NewDriveService creates a Google Drive API service using the provided TokenSource.
func NewDriveService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*drive.Service, error) {
	return drive.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}
