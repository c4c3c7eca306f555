package main

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// config carries the job parameters, resolved once at startup and read-only
// afterwards.
type config struct {
	SecretName     string
	SecretRegion   string
	SpreadsheetID  string
	SpreadsheetTab string

	Bucket       string
	Folder       string
	Filename     string
	OutputFormat string
	Compression  string
}

func (c config) Validate() error {
	var requiredProperties = [][]string{
		{"google-secret-name", c.SecretName},
		{"google-secret-region", c.SecretRegion},
		{"google-spreadsheet-id", c.SpreadsheetID},
		{"google-spreadsheet-tab", c.SpreadsheetTab},
		{"bucket", c.Bucket},
	}
	for _, req := range requiredProperties {
		if req[1] == "" {
			return fmt.Errorf("missing '%s'", req[0])
		}
	}

	if strings.HasPrefix(c.Folder, "/") {
		return fmt.Errorf("folder %q cannot start with /", c.Folder)
	}

	return nil
}

// The compression parameter is string-typed for compatibility with how the
// job has always been invoked. These are the values recognized as true,
// matched case-insensitively; the listed falsy values coerce to false
// silently, and anything else coerces to false with a warning.
var (
	truthyValues = []string{"true", "1", "t", "y", "yes"}
	falsyValues  = []string{"false", "0", "f", "n", "no", ""}
)

func parseCompression(s string) bool {
	v := strings.ToLower(s)

	for _, t := range truthyValues {
		if v == t {
			return true
		}
	}
	for _, f := range falsyValues {
		if v == f {
			return false
		}
	}

	log.WithField("compression", s).Warn("unrecognized compression flag, treating as false")
	return false
}
