// Package importer implements the document import control loop: list new
// documents from the external store, validate and dispatch each one by type,
// write the resulting projections with idempotent upserts, and record every
// per-document failure for the next run to retry.
package importer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldstudies/import-backend/pkg/documents"
	"github.com/fieldstudies/import-backend/pkg/splitter"
)

// After this many consecutive failures of the same document the failure is
// logged at error level so operators get an escalating signal.
const ALERT_AFTER_ATTEMPTS = 3

type Importer struct {
	source   DocumentSource
	surveyDB SurveyStore
	piiDB    PiiStore
	problems ProblemStore
	photos   PhotoDownloader
	notifier FeedbackNotifier

	now func() time.Time
}

func NewImporter(
	source DocumentSource,
	surveyDB SurveyStore,
	piiDB PiiStore,
	problems ProblemStore,
	photos PhotoDownloader,
	notifier FeedbackNotifier,
) *Importer {
	return &Importer{
		source:   source,
		surveyDB: surveyDB,
		piiDB:    piiDB,
		problems: problems,
		photos:   photos,
		notifier: notifier,
		now:      time.Now,
	}
}

// Import runs one batch over the given source collection. Documents are
// processed independently: a failed document is converted into a problem
// record and an ImportError entry, never into an abort of the batch. Only a
// failure to list the source at all is returned as an error.
// progressCallback, if set, is called after each successfully imported
// document for liveness signaling on long batches.
func (imp *Importer) Import(ctx context.Context, collection string, progressCallback func()) (ImportResult, error) {
	result := ImportResult{}

	refs, err := imp.source.ListNew(ctx, collection)
	if err != nil {
		return result, fmt.Errorf("listing new documents for %s: %w", collection, err)
	}

	slog.Debug("Starting import batch", slog.String("collection", collection), slog.Int("newDocuments", len(refs)))

	for _, ref := range refs {
		if err := imp.importOne(ctx, ref); err != nil {
			attempts, trackErr := imp.problems.RecordFailure(ref.Collection, ref.ID, err.Error())
			if trackErr != nil {
				slog.Error("Failed to record import problem", slog.String("collection", ref.Collection), slog.String("docId", ref.ID), slog.String("error", trackErr.Error()))
			}

			logAttrs := []any{
				slog.String("collection", ref.Collection),
				slog.String("docId", ref.ID),
				slog.Int("attempts", attempts),
				slog.String("error", err.Error()),
			}
			if attempts >= ALERT_AFTER_ATTEMPTS {
				slog.Error("Document import keeps failing", logAttrs...)
			} else {
				slog.Warn("Document import failed", logAttrs...)
			}

			result.Errors = append(result.Errors, ImportError{
				Collection: ref.Collection,
				ID:         ref.ID,
				Error:      err.Error(),
				Attempts:   attempts,
			})
			continue
		}

		result.ProcessedCount++
		if progressCallback != nil {
			progressCallback()
		}

		// acknowledgement is best effort: if it fails the document is
		// redelivered next run and the upserts absorb the replay
		if err := imp.source.MarkProcessed(ctx, ref); err != nil {
			slog.Warn("Failed to mark document as processed", slog.String("collection", ref.Collection), slog.String("docId", ref.ID), slog.String("error", err.Error()))
		}
	}

	return result, nil
}

func (imp *Importer) importOne(ctx context.Context, ref DocumentRef) error {
	doc, err := imp.source.Fetch(ctx, ref)
	if err != nil {
		return fmt.Errorf("fetching document: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return err
	}

	switch doc.DocumentType {
	case documents.DOCUMENT_TYPE_SURVEY:
		return imp.importSurvey(doc)
	case documents.DOCUMENT_TYPE_PHOTO:
		return imp.importPhoto(ctx, doc)
	case documents.DOCUMENT_TYPE_FEEDBACK:
		return imp.importFeedback(doc)
	case documents.DOCUMENT_TYPE_ANALYTICS:
		return imp.importAnalytics(doc)
	default:
		// Validate rejects unknown types already
		return fmt.Errorf("unhandled document type %q", doc.DocumentType)
	}
}

// importSurvey writes both projections, non-PII first. On retry after a
// partial failure both halves are written again; since both writes are
// upserts by csruid this converges to a consistent pair.
func (imp *Importer) importSurvey(doc documents.RawDocument) error {
	nonPii, pii := splitter.Split(doc, imp.now())

	if err := imp.surveyDB.UpsertSurveyRecord(nonPii); err != nil {
		return fmt.Errorf("non-PII write: %w", err)
	}
	if err := imp.piiDB.UpsertPiiSurveyRecord(pii); err != nil {
		return fmt.Errorf("PII write: %w", err)
	}
	return nil
}

// importPhoto downloads and stores the photo as one retryable unit. The
// download is redone even if only the previous DB write failed; downloads
// are cheap relative to the correctness risk of tracking partial state.
func (imp *Importer) importPhoto(ctx context.Context, doc documents.RawDocument) error {
	data, err := imp.photos.Download(ctx, doc.Photo.PhotoID)
	if err != nil {
		return fmt.Errorf("photo download: %w", err)
	}

	record := documents.PhotoRecord{
		PhotoID:   doc.Photo.PhotoID,
		TakenAt:   doc.Photo.TakenAt,
		Device:    doc.Device,
		Data:      base64.StdEncoding.EncodeToString(data),
		UpdatedAt: imp.now(),
	}
	if err := imp.surveyDB.UpsertPhotoRecord(record); err != nil {
		return fmt.Errorf("photo write: %w", err)
	}
	return nil
}

// importFeedback persists the feedback record and sends the operator
// notification. The two are independent: a notification failure never blocks
// persistence, and a persistence failure does not prevent the notification
// attempt. Only the persistence outcome drives retry bookkeeping.
func (imp *Importer) importFeedback(doc documents.RawDocument) error {
	record := documents.FeedbackRecord{
		DocID:     doc.DocumentID,
		Subject:   doc.Feedback.Subject,
		Body:      doc.Feedback.Body,
		Device:    doc.Device,
		ArrivedAt: imp.now(),
	}
	persistErr := imp.surveyDB.UpsertFeedbackRecord(record)

	if imp.notifier != nil {
		if err := imp.notifier.NotifyFeedback(doc.Feedback.Subject, doc.Feedback.Body); err != nil {
			slog.Error("Failed to send feedback notification", slog.String("docId", doc.DocumentID), slog.String("error", err.Error()))
		}
	}

	if persistErr != nil {
		return fmt.Errorf("feedback write: %w", persistErr)
	}
	return nil
}

func (imp *Importer) importAnalytics(doc documents.RawDocument) error {
	record := documents.AnalyticsRecord{
		DocID:     doc.DocumentID,
		Timestamp: doc.Analytics.Timestamp,
		Logs:      doc.Analytics.Logs,
		Events:    doc.Analytics.Events,
		Device:    doc.Device,
		ArrivedAt: imp.now(),
	}
	if err := imp.surveyDB.UpsertAnalyticsRecord(record); err != nil {
		return fmt.Errorf("analytics write: %w", err)
	}
	return nil
}
