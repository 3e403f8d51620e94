package storage

import (
	"context"
	"io"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// ReportObjectName is where a finalized session's report is archived.
func ReportObjectName(jobID, sessionID string) string {
	return "reports/" + jobID + "/" + sessionID + ".json"
}
