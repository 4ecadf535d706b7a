package importer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

type fakeSource struct {
	refs      []DocumentRef
	docs      map[string]documents.RawDocument
	listErr   error
	fetchErr  map[string]error
	processed []DocumentRef
}

func refKey(ref DocumentRef) string { return ref.Collection + "/" + ref.ID }

func (s *fakeSource) ListNew(ctx context.Context, collection string) ([]DocumentRef, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.refs, nil
}

func (s *fakeSource) Fetch(ctx context.Context, ref DocumentRef) (documents.RawDocument, error) {
	if err, ok := s.fetchErr[refKey(ref)]; ok {
		return documents.RawDocument{}, err
	}
	doc, ok := s.docs[refKey(ref)]
	if !ok {
		return documents.RawDocument{}, errors.New("document not found")
	}
	return doc, nil
}

func (s *fakeSource) MarkProcessed(ctx context.Context, ref DocumentRef) error {
	s.processed = append(s.processed, ref)
	return nil
}

type fakeSurveyStore struct {
	surveys   map[string]documents.SurveyRecord
	photos    map[string]documents.PhotoRecord
	feedback  map[string]documents.FeedbackRecord
	analytics map[string]documents.AnalyticsRecord

	failNextSurveyWrites   int
	failNextPhotoWrites    int
	failNextFeedbackWrites int
}

func newFakeSurveyStore() *fakeSurveyStore {
	return &fakeSurveyStore{
		surveys:   map[string]documents.SurveyRecord{},
		photos:    map[string]documents.PhotoRecord{},
		feedback:  map[string]documents.FeedbackRecord{},
		analytics: map[string]documents.AnalyticsRecord{},
	}
}

func (s *fakeSurveyStore) UpsertSurveyRecord(record documents.SurveyRecord) error {
	if s.failNextSurveyWrites > 0 {
		s.failNextSurveyWrites--
		return errors.New("survey store unavailable")
	}
	s.surveys[record.CSRUID] = record
	return nil
}

func (s *fakeSurveyStore) UpsertPhotoRecord(record documents.PhotoRecord) error {
	if s.failNextPhotoWrites > 0 {
		s.failNextPhotoWrites--
		return errors.New("photo store unavailable")
	}
	s.photos[record.PhotoID] = record
	return nil
}

func (s *fakeSurveyStore) UpsertFeedbackRecord(record documents.FeedbackRecord) error {
	if s.failNextFeedbackWrites > 0 {
		s.failNextFeedbackWrites--
		return errors.New("feedback store unavailable")
	}
	s.feedback[record.DocID] = record
	return nil
}

func (s *fakeSurveyStore) UpsertAnalyticsRecord(record documents.AnalyticsRecord) error {
	s.analytics[record.DocID] = record
	return nil
}

type fakePiiStore struct {
	records        map[string]documents.PiiSurveyRecord
	failNextWrites int
}

func newFakePiiStore() *fakePiiStore {
	return &fakePiiStore{records: map[string]documents.PiiSurveyRecord{}}
}

func (s *fakePiiStore) UpsertPiiSurveyRecord(record documents.PiiSurveyRecord) error {
	if s.failNextWrites > 0 {
		s.failNextWrites--
		return errors.New("pii store unavailable")
	}
	s.records[record.CSRUID] = record
	return nil
}

type fakeProblemStore struct {
	attempts  map[string]int
	lastError map[string]string
}

func newFakeProblemStore() *fakeProblemStore {
	return &fakeProblemStore{attempts: map[string]int{}, lastError: map[string]string{}}
}

func (s *fakeProblemStore) RecordFailure(collection string, docID string, errMsg string) (int, error) {
	key := collection + "/" + docID
	s.attempts[key]++
	s.lastError[key] = errMsg
	return s.attempts[key], nil
}

type fakeDownloader struct {
	data  []byte
	err   error
	calls int
}

func (d *fakeDownloader) Download(ctx context.Context, photoID string) ([]byte, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.data, nil
}

type fakeNotifier struct {
	err   error
	calls int
}

func (n *fakeNotifier) NotifyFeedback(subject string, body string) error {
	n.calls++
	return n.err
}

func surveyRawDoc(id string) documents.RawDocument {
	return documents.RawDocument{
		Collection:   "surveys",
		DocumentID:   id,
		SchemaID:     documents.CURRENT_SCHEMA_ID,
		DocumentType: documents.DOCUMENT_TYPE_SURVEY,
		Survey: &documents.SurveyPayload{
			Complete: true,
			Patient:  &documents.PatientInfo{Name: "Jane Doe"},
			Samples:  []documents.Sample{{SampleType: "manualEntry", Code: "X1"}},
		},
	}
}

type testEnv struct {
	source   *fakeSource
	surveyDB *fakeSurveyStore
	piiDB    *fakePiiStore
	problems *fakeProblemStore
	photos   *fakeDownloader
	notifier *fakeNotifier
	importer *Importer
}

func newTestEnv(docs ...documents.RawDocument) *testEnv {
	source := &fakeSource{
		docs:     map[string]documents.RawDocument{},
		fetchErr: map[string]error{},
	}
	for _, doc := range docs {
		ref := DocumentRef{Collection: doc.Collection, ID: doc.DocumentID}
		source.refs = append(source.refs, ref)
		source.docs[refKey(ref)] = doc
	}

	env := &testEnv{
		source:   source,
		surveyDB: newFakeSurveyStore(),
		piiDB:    newFakePiiStore(),
		problems: newFakeProblemStore(),
		photos:   &fakeDownloader{data: []byte("img-bytes")},
		notifier: &fakeNotifier{},
	}
	env.importer = NewImporter(env.source, env.surveyDB, env.piiDB, env.problems, env.photos, env.notifier)
	return env
}

func TestImportSurveyDocument(t *testing.T) {
	env := newTestEnv(surveyRawDoc("abc123"))

	progressCalls := 0
	result, err := env.importer.Import(context.Background(), "surveys", func() { progressCalls++ })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ProcessedCount != 1 || len(result.Errors) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if progressCalls != 1 {
		t.Errorf("expected 1 progress call, got %d", progressCalls)
	}
	if len(env.source.processed) != 1 {
		t.Errorf("expected document to be acknowledged, got %v", env.source.processed)
	}

	nonPii, ok := env.surveyDB.surveys["abc123"]
	if !ok {
		t.Fatal("non-PII projection missing")
	}
	if len(nonPii.Samples) != 1 || nonPii.Samples[0].Code != "X1" {
		t.Errorf("non-PII projection lost sample codes: %+v", nonPii)
	}

	pii, ok := env.piiDB.records["abc123"]
	if !ok {
		t.Fatal("PII projection missing")
	}
	if pii.Patient == nil || pii.Patient.Name != "Jane Doe" {
		t.Errorf("PII projection lost patient block: %+v", pii)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	env := newTestEnv(surveyRawDoc("abc123"))

	for i := 0; i < 2; i++ {
		result, err := env.importer.Import(context.Background(), "surveys", nil)
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i+1, err)
		}
		if result.ProcessedCount != 1 {
			t.Errorf("run %d: unexpected processed count %d", i+1, result.ProcessedCount)
		}
	}

	if len(env.surveyDB.surveys) != 1 || len(env.piiDB.records) != 1 {
		t.Errorf("replay must not create additional rows: %d non-PII, %d PII", len(env.surveyDB.surveys), len(env.piiDB.records))
	}
	if len(env.problems.attempts) != 0 {
		t.Errorf("successful replays must not touch the problem tracker: %v", env.problems.attempts)
	}
}

func TestBatchIndependence(t *testing.T) {
	docs := make([]documents.RawDocument, 0, 5)
	for i := 1; i <= 5; i++ {
		doc := surveyRawDoc(fmt.Sprintf("doc-%d", i))
		if i == 3 {
			doc.SchemaID = 99 // fails validation
		}
		docs = append(docs, doc)
	}
	env := newTestEnv(docs...)

	result, err := env.importer.Import(context.Background(), "surveys", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ProcessedCount != 4 {
		t.Errorf("expected 4 processed documents, got %d", result.ProcessedCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one import error, got %+v", result.Errors)
	}
	if result.Errors[0].ID != "doc-3" || result.Errors[0].Attempts != 1 {
		t.Errorf("unexpected import error: %+v", result.Errors[0])
	}
	if _, ok := env.surveyDB.surveys["doc-3"]; ok {
		t.Error("invalid document must not be persisted")
	}
	if len(env.source.processed) != 4 {
		t.Errorf("failed document must not be acknowledged, got %d acks", len(env.source.processed))
	}
}

func TestProblemAccumulation(t *testing.T) {
	env := newTestEnv(surveyRawDoc("stubborn"))
	env.piiDB.failNextWrites = 3

	for i := 0; i < 3; i++ {
		result, err := env.importer.Import(context.Background(), "surveys", nil)
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i+1, err)
		}
		if len(result.Errors) != 1 {
			t.Fatalf("run %d: expected one error, got %+v", i+1, result.Errors)
		}
		if result.Errors[0].Attempts != i+1 {
			t.Errorf("run %d: expected attempts %d, got %d", i+1, i+1, result.Errors[0].Attempts)
		}
	}

	key := "surveys/stubborn"
	if env.problems.attempts[key] != 3 {
		t.Errorf("expected 3 recorded attempts, got %d", env.problems.attempts[key])
	}
	if env.problems.lastError[key] == "" {
		t.Error("last error message missing")
	}
}

func TestPartialWriteRecovery(t *testing.T) {
	env := newTestEnv(surveyRawDoc("abc123"))
	env.surveyDB.failNextSurveyWrites = 1

	// attempt 1: non-PII write fails, PII write is never reached
	result, err := env.importer.Import(context.Background(), "surveys", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Attempts != 1 {
		t.Fatalf("expected one error with attempts=1, got %+v", result.Errors)
	}

	// attempt 2: both writes succeed
	result, err = env.importer.Import(context.Background(), "surveys", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProcessedCount != 1 || len(result.Errors) != 0 {
		t.Fatalf("expected clean retry, got %+v", result)
	}

	if len(env.surveyDB.surveys) != 1 || len(env.piiDB.records) != 1 {
		t.Errorf("expected exactly one row per projection, got %d non-PII, %d PII", len(env.surveyDB.surveys), len(env.piiDB.records))
	}
	if env.surveyDB.surveys["abc123"].CSRUID != env.piiDB.records["abc123"].CSRUID {
		t.Error("projections inconsistent after retry")
	}
}

func TestPartialWriteRecoveryPiiSide(t *testing.T) {
	env := newTestEnv(surveyRawDoc("abc123"))
	env.piiDB.failNextWrites = 1

	// attempt 1: non-PII write succeeds, PII write fails
	result, err := env.importer.Import(context.Background(), "surveys", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", result.Errors)
	}

	// attempt 2: both halves are redone; the non-PII upsert replays harmlessly
	result, err = env.importer.Import(context.Background(), "surveys", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProcessedCount != 1 || len(result.Errors) != 0 {
		t.Fatalf("expected clean retry, got %+v", result)
	}
	if len(env.surveyDB.surveys) != 1 || len(env.piiDB.records) != 1 {
		t.Errorf("expected exactly one row per projection, got %d non-PII, %d PII", len(env.surveyDB.surveys), len(env.piiDB.records))
	}
}

func TestImportPhotoDocument(t *testing.T) {
	doc := documents.RawDocument{
		Collection:   "photos",
		DocumentID:   "photo-doc-1",
		SchemaID:     documents.CURRENT_SCHEMA_ID,
		DocumentType: documents.DOCUMENT_TYPE_PHOTO,
		Photo:        &documents.PhotoPayload{PhotoID: "p-42", TakenAt: "2020-01-01T10:00:00Z"},
	}

	t.Run("download and store", func(t *testing.T) {
		env := newTestEnv(doc)

		result, err := env.importer.Import(context.Background(), "photos", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ProcessedCount != 1 {
			t.Fatalf("unexpected result: %+v", result)
		}

		record, ok := env.surveyDB.photos["p-42"]
		if !ok {
			t.Fatal("photo record missing")
		}
		want := base64.StdEncoding.EncodeToString([]byte("img-bytes"))
		if record.Data != want {
			t.Errorf("photo data not base64 encoded: got %q, want %q", record.Data, want)
		}
	})

	t.Run("download and write retried as one unit", func(t *testing.T) {
		env := newTestEnv(doc)
		env.surveyDB.failNextPhotoWrites = 1

		if _, err := env.importer.Import(context.Background(), "photos", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := env.importer.Import(context.Background(), "photos", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if env.photos.calls != 2 {
			t.Errorf("expected the retry to download again, got %d download calls", env.photos.calls)
		}
		if _, ok := env.surveyDB.photos["p-42"]; !ok {
			t.Error("photo record missing after retry")
		}
	})
}

func TestImportFeedbackDocument(t *testing.T) {
	doc := documents.RawDocument{
		Collection:   "feedback",
		DocumentID:   "fb-1",
		SchemaID:     documents.CURRENT_SCHEMA_ID,
		DocumentType: documents.DOCUMENT_TYPE_FEEDBACK,
		Feedback:     &documents.FeedbackPayload{Subject: "App crash", Body: "It crashed on step 3"},
	}

	t.Run("notification failure does not block persistence", func(t *testing.T) {
		env := newTestEnv(doc)
		env.notifier.err = errors.New("smtp down")

		result, err := env.importer.Import(context.Background(), "feedback", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ProcessedCount != 1 || len(result.Errors) != 0 {
			t.Errorf("notification failure must not fail the document: %+v", result)
		}
		if _, ok := env.surveyDB.feedback["fb-1"]; !ok {
			t.Error("feedback record missing")
		}
		if env.notifier.calls != 1 {
			t.Errorf("expected one notification attempt, got %d", env.notifier.calls)
		}
	})

	t.Run("persistence failure does not block the notification attempt", func(t *testing.T) {
		env := newTestEnv(doc)
		env.surveyDB.failNextFeedbackWrites = 1

		result, err := env.importer.Import(context.Background(), "feedback", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Errors) != 1 {
			t.Fatalf("persistence failure must be tracked, got %+v", result)
		}
		if env.notifier.calls != 1 {
			t.Errorf("expected the notification to be attempted anyway, got %d calls", env.notifier.calls)
		}
	})
}

func TestImportAnalyticsDocument(t *testing.T) {
	doc := documents.RawDocument{
		Collection:   "analytics",
		DocumentID:   "an-1",
		SchemaID:     documents.CURRENT_SCHEMA_ID,
		DocumentType: documents.DOCUMENT_TYPE_ANALYTICS,
		Analytics: &documents.AnalyticsPayload{
			Timestamp: "2020-01-01T10:00:00Z",
			Logs:      []documents.LogEntry{{Level: "info", Text: "app started"}},
		},
	}
	env := newTestEnv(doc)

	result, err := env.importer.Import(context.Background(), "analytics", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProcessedCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, ok := env.surveyDB.analytics["an-1"]; !ok {
		t.Error("analytics record missing")
	}
}

func TestSourceUnreachableIsHardFailure(t *testing.T) {
	env := newTestEnv()
	env.source.listErr = errors.New("connection refused")

	_, err := env.importer.Import(context.Background(), "surveys", nil)
	if err == nil {
		t.Fatal("expected a batch-level error when the source cannot be listed")
	}
}

func TestFetchFailureIsPerDocument(t *testing.T) {
	env := newTestEnv(surveyRawDoc("ok-doc"))
	badRef := DocumentRef{Collection: "surveys", ID: "gone"}
	env.source.refs = append(env.source.refs, badRef)
	env.source.fetchErr[refKey(badRef)] = errors.New("connection reset")

	result, err := env.importer.Import(context.Background(), "surveys", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProcessedCount != 1 || len(result.Errors) != 1 {
		t.Errorf("fetch failure must be tracked per document: %+v", result)
	}
	if result.Errors[0].ID != "gone" {
		t.Errorf("unexpected error entry: %+v", result.Errors[0])
	}
}
