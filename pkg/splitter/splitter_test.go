package splitter

import (
	"testing"
	"time"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func surveyDoc(payload documents.SurveyPayload) documents.RawDocument {
	return documents.RawDocument{
		Collection:   "surveys",
		DocumentID:   "abc123",
		SchemaID:     documents.CURRENT_SCHEMA_ID,
		DocumentType: documents.DOCUMENT_TYPE_SURVEY,
		Device:       documents.DeviceInfo{Installation: "inst-1", ClientVersion: "1.2.3"},
		Survey:       &payload,
	}
}

func TestSplit(t *testing.T) {
	now := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("patient and samples end up on the correct sides", func(t *testing.T) {
		doc := surveyDoc(documents.SurveyPayload{
			Patient: &documents.PatientInfo{Name: "Jane Doe"},
			Samples: []documents.Sample{{SampleType: "manualEntry", Code: "X1"}},
			Consents: []documents.Consent{
				{Terms: "T", SignerType: "Subject", Date: "2020-01-01", Name: "Jane Doe", Signature: "<png>"},
			},
		})

		nonPii, pii := Split(doc, now)

		if nonPii.CSRUID != "abc123" || pii.CSRUID != "abc123" {
			t.Errorf("both projections should share the natural key, got %q and %q", nonPii.CSRUID, pii.CSRUID)
		}
		if len(nonPii.Samples) != 1 || nonPii.Samples[0].Code != "X1" {
			t.Errorf("non-PII projection should keep sample codes, got %v", nonPii.Samples)
		}
		if pii.Patient == nil || pii.Patient.Name != "Jane Doe" {
			t.Errorf("PII projection should keep the patient block, got %v", pii.Patient)
		}
	})

	t.Run("consents are de-identified on the non-PII side", func(t *testing.T) {
		doc := surveyDoc(documents.SurveyPayload{
			Consents: []documents.Consent{
				{Terms: "T", SignerType: "Subject", Date: "2020-01-01", Relation: "parent", Name: "Jane Doe", Signature: "<png>"},
			},
		})

		nonPii, pii := Split(doc, now)

		if len(nonPii.ConsentSummaries) != 1 {
			t.Fatalf("expected one consent summary, got %d", len(nonPii.ConsentSummaries))
		}
		cs := nonPii.ConsentSummaries[0]
		if cs.Terms != "T" || cs.SignerType != "Subject" || cs.Date != "2020-01-01" || cs.Relation != "parent" {
			t.Errorf("consent summary lost non-identifying fields: %+v", cs)
		}

		if len(pii.Consents) != 1 || pii.Consents[0].Name != "Jane Doe" || pii.Consents[0].Signature != "<png>" {
			t.Errorf("PII projection should keep full consents, got %+v", pii.Consents)
		}
	})

	t.Run("free-text answers are stripped, closed-form answers kept", func(t *testing.T) {
		doc := surveyDoc(documents.SurveyPayload{
			Responses: []documents.Response{
				{
					ID: "r1",
					Items: []documents.ResponseItem{
						{
							QuestionID: "q1",
							Answers: []documents.Answer{
								{ValueBool: boolPtr(true)},
								{ValueString: strPtr("my street address")},
							},
						},
						{
							QuestionID: "q2",
							Answers: []documents.Answer{
								{ValueIndex: intPtr(2)},
								{ValueDecimal: floatPtr(37.8)},
								{ValueAddress: &documents.Address{City: "Seattle"}},
							},
						},
					},
				},
			},
		})

		nonPii, pii := Split(doc, now)

		if len(nonPii.Responses) != 1 {
			t.Fatalf("expected one response, got %d", len(nonPii.Responses))
		}
		items := nonPii.Responses[0].Items
		if len(items) != 2 {
			t.Fatalf("expected two items, got %d", len(items))
		}
		if len(items[0].Answers) != 1 || items[0].Answers[0].ValueBool == nil {
			t.Errorf("q1 should keep only the boolean answer, got %+v", items[0].Answers)
		}
		if len(items[1].Answers) != 2 {
			t.Errorf("q2 should keep index and decimal answers, got %+v", items[1].Answers)
		}
		for _, item := range items {
			for _, a := range item.Answers {
				if a.ValueString != nil || a.ValueAddress != nil {
					t.Errorf("non-PII answer carries free-text value: %+v", a)
				}
			}
		}

		// PII side keeps everything
		piiItems := pii.Responses[0].Items
		if len(piiItems[0].Answers) != 2 || len(piiItems[1].Answers) != 3 {
			t.Errorf("PII projection should keep all answers, got %+v", piiItems)
		}
	})

	t.Run("sensitive items are excluded from the non-PII side entirely", func(t *testing.T) {
		doc := surveyDoc(documents.SurveyPayload{
			Responses: []documents.Response{
				{
					ID: "r1",
					Items: []documents.ResponseItem{
						{QuestionID: "q1", Sensitive: true, Answers: []documents.Answer{{ValueBool: boolPtr(true)}}},
						{QuestionID: "q2", Answers: []documents.Answer{{ValueIndex: intPtr(0)}}},
					},
				},
			},
		})

		nonPii, pii := Split(doc, now)

		items := nonPii.Responses[0].Items
		if len(items) != 1 || items[0].QuestionID != "q2" {
			t.Errorf("sensitive item should be dropped from non-PII side, got %+v", items)
		}
		if len(pii.Responses[0].Items) != 2 {
			t.Errorf("PII projection should keep sensitive items, got %+v", pii.Responses[0].Items)
		}
	})

	t.Run("shared fields are duplicated unchanged", func(t *testing.T) {
		events := []documents.TimelineEvent{{Kind: "appNav", At: "2020-01-01T10:00:00Z"}}
		doc := surveyDoc(documents.SurveyPayload{
			Complete:      true,
			IsDemo:        true,
			Location:      "clinic-4",
			Administrator: "nurse-7",
			Events:        events,
			GPSLocation:   &documents.GPSLocation{Latitude: "47.6", Longitude: "-122.3"},
		})

		nonPii, pii := Split(doc, now)

		if !nonPii.Complete || !nonPii.IsDemo || nonPii.Location != "clinic-4" || nonPii.Administrator != "nurse-7" || len(nonPii.Events) != 1 {
			t.Errorf("non-PII projection lost shared fields: %+v", nonPii)
		}
		if !pii.Complete || !pii.IsDemo || pii.Location != "clinic-4" || pii.Administrator != "nurse-7" || len(pii.Events) != 1 {
			t.Errorf("PII projection lost shared fields: %+v", pii)
		}
		if pii.GPSLocation == nil {
			t.Error("GPS location should be kept on the PII side")
		}
	})

	t.Run("determinism", func(t *testing.T) {
		doc := surveyDoc(documents.SurveyPayload{
			Patient: &documents.PatientInfo{Name: "Jane Doe"},
			Samples: []documents.Sample{{SampleType: "manualEntry", Code: "X1"}},
		})

		a1, b1 := Split(doc, now)
		a2, b2 := Split(doc, now)

		if a1.CSRUID != a2.CSRUID || len(a1.Samples) != len(a2.Samples) {
			t.Error("repeated splits of the same document should be identical")
		}
		if b1.Patient.Name != b2.Patient.Name {
			t.Error("repeated splits of the same document should be identical")
		}
	})
}
