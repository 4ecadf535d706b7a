package documents

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := RawDocument{
		Collection:   "surveys",
		DocumentID:   "abc123",
		SchemaID:     CURRENT_SCHEMA_ID,
		DocumentType: DOCUMENT_TYPE_SURVEY,
		Survey:       &SurveyPayload{},
	}

	tests := []struct {
		name           string
		modify         func(doc *RawDocument)
		wantErr        bool
		schemaMismatch bool
	}{
		{
			name:   "valid survey document",
			modify: func(doc *RawDocument) {},
		},
		{
			name:    "missing collection",
			modify:  func(doc *RawDocument) { doc.Collection = "" },
			wantErr: true,
		},
		{
			name:    "missing document id",
			modify:  func(doc *RawDocument) { doc.DocumentID = "" },
			wantErr: true,
		},
		{
			name:           "wrong schema id",
			modify:         func(doc *RawDocument) { doc.SchemaID = 99 },
			wantErr:        true,
			schemaMismatch: true,
		},
		{
			name:           "unknown document type",
			modify:         func(doc *RawDocument) { doc.DocumentType = "SELFIE" },
			wantErr:        true,
			schemaMismatch: true,
		},
		{
			name:           "declared type without payload",
			modify:         func(doc *RawDocument) { doc.Survey = nil },
			wantErr:        true,
			schemaMismatch: true,
		},
		{
			name: "photo without photo id",
			modify: func(doc *RawDocument) {
				doc.DocumentType = DOCUMENT_TYPE_PHOTO
				doc.Photo = &PhotoPayload{}
			},
			wantErr:        true,
			schemaMismatch: true,
		},
		{
			name: "valid photo document",
			modify: func(doc *RawDocument) {
				doc.DocumentType = DOCUMENT_TYPE_PHOTO
				doc.Photo = &PhotoPayload{PhotoID: "p-1"}
			},
		},
		{
			name: "valid feedback document",
			modify: func(doc *RawDocument) {
				doc.DocumentType = DOCUMENT_TYPE_FEEDBACK
				doc.Feedback = &FeedbackPayload{Subject: "s"}
			},
		},
		{
			name: "valid analytics document",
			modify: func(doc *RawDocument) {
				doc.DocumentType = DOCUMENT_TYPE_ANALYTICS
				doc.Analytics = &AnalyticsPayload{}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid
			tt.modify(&doc)

			err := doc.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.schemaMismatch && !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("expected a schema mismatch error, got %v", err)
			}
		})
	}
}
