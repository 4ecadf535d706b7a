package importer

import (
	"context"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

// DocumentRef identifies one document in the external store without its body.
type DocumentRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// DocumentSource is the external document store capability. Listing is
// at-least-once: a document may be returned again after a crash or a missed
// acknowledgement, which is harmless because all writes are upserts.
type DocumentSource interface {
	ListNew(ctx context.Context, collection string) ([]DocumentRef, error)
	Fetch(ctx context.Context, ref DocumentRef) (documents.RawDocument, error)
	MarkProcessed(ctx context.Context, ref DocumentRef) error
}

// PhotoDownloader fetches the binary payload referenced by a photo document.
type PhotoDownloader interface {
	Download(ctx context.Context, photoID string) ([]byte, error)
}

// FeedbackNotifier delivers a best-effort operator notification when a
// feedback document arrives. Failures are logged, never retried.
type FeedbackNotifier interface {
	NotifyFeedback(subject string, body string) error
}

// SurveyStore is the de-identified storage target.
type SurveyStore interface {
	UpsertSurveyRecord(record documents.SurveyRecord) error
	UpsertPhotoRecord(record documents.PhotoRecord) error
	UpsertFeedbackRecord(record documents.FeedbackRecord) error
	UpsertAnalyticsRecord(record documents.AnalyticsRecord) error
}

// PiiStore is the identifying storage target, a separate trust boundary.
type PiiStore interface {
	UpsertPiiSurveyRecord(record documents.PiiSurveyRecord) error
}

// ProblemStore tracks per-document failure history. RecordFailure must be
// atomic per (collection, docId) and returns the resulting attempt count.
type ProblemStore interface {
	RecordFailure(collection string, docID string, errMsg string) (attempts int, err error)
}

// ImportError describes one failed document within a batch.
type ImportError struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Error      string `json:"error"`
	Attempts   int    `json:"attempts"`
}

// ImportResult summarizes one batch. ProcessedCount counts successfully
// imported documents; Errors holds one entry per failed document, in
// processing order. A non-empty error list is partial success, not failure.
type ImportResult struct {
	ProcessedCount int           `json:"processedCount"`
	Errors         []ImportError `json:"errors"`
}
