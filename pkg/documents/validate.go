package documents

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Validate checks that the document identifies itself correctly and that the
// declared type matches the payload it carries. Splitting and persistence
// assume a validated document.
func (doc RawDocument) Validate() error {
	if doc.Collection == "" {
		return errors.New("document collection must be defined")
	}
	if doc.DocumentID == "" {
		return errors.New("document id must be defined")
	}
	if doc.SchemaID != CURRENT_SCHEMA_ID {
		return fmt.Errorf("%w: got schemaId %d, expected %d", ErrSchemaMismatch, doc.SchemaID, CURRENT_SCHEMA_ID)
	}

	switch doc.DocumentType {
	case DOCUMENT_TYPE_SURVEY:
		if doc.Survey == nil {
			return fmt.Errorf("%w: document %s declares type SURVEY but has no survey payload", ErrSchemaMismatch, doc.DocumentID)
		}
	case DOCUMENT_TYPE_PHOTO:
		if doc.Photo == nil {
			return fmt.Errorf("%w: document %s declares type PHOTO but has no photo payload", ErrSchemaMismatch, doc.DocumentID)
		}
		if doc.Photo.PhotoID == "" {
			return fmt.Errorf("%w: photo document %s has no photo id", ErrSchemaMismatch, doc.DocumentID)
		}
	case DOCUMENT_TYPE_FEEDBACK:
		if doc.Feedback == nil {
			return fmt.Errorf("%w: document %s declares type FEEDBACK but has no feedback payload", ErrSchemaMismatch, doc.DocumentID)
		}
	case DOCUMENT_TYPE_ANALYTICS:
		if doc.Analytics == nil {
			return fmt.Errorf("%w: document %s declares type ANALYTICS but has no analytics payload", ErrSchemaMismatch, doc.DocumentID)
		}
	default:
		return fmt.Errorf("%w: unknown document type %q", ErrSchemaMismatch, doc.DocumentType)
	}
	return nil
}
