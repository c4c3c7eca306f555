// Package sheetsource reads one rectangular range of values from a Google
// spreadsheet, authenticating with a service account credential bundle held
// in AWS Secrets Manager.
package sheetsource

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// The credential is scoped to Drive and Spreadsheets access, which is what
// reading a shared spreadsheet requires.
var scopes = []string{
	drive.DriveScope,
	sheets.SpreadsheetsScope,
}

// NewService builds an authenticated Sheets client from a service account
// key in JSON form.
func NewService(ctx context.Context, keyJSON []byte) (*sheets.Service, error) {
	conf, err := google.JWTConfigFromJSON(keyJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("building sheets service: %w", err)
	}

	return svc, nil
}

// ReadRange requests the values of readRange (a sheet name or A1-style
// range) within the spreadsheet, as one Values.Get call.
func ReadRange(ctx context.Context, svc *sheets.Service, spreadsheetID, readRange string) ([][]any, error) {
	resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching range %q of spreadsheet %q: %w", readRange, spreadsheetID, err)
	}

	log.WithFields(log.Fields{
		"spreadsheetId": spreadsheetID,
		"range":         readRange,
		"rows":          len(resp.Values),
	}).Info("fetched spreadsheet range")

	return resp.Values, nil
}
