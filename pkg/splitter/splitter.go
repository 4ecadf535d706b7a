// Package splitter maps a validated survey document into its two persisted
// projections: a de-identified record for the non-PII store and an
// identifying record for the PII store. Splitting is pure and total over
// validated documents; it performs no I/O and never fails.
package splitter

import (
	"time"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

// Split produces the non-PII and PII projections of a survey document. The
// caller must have validated the document (type SURVEY, survey payload set).
// Fields shared by both projections are duplicated unchanged; patient
// identity, GPS coordinates, full consents and free-text answers appear only
// on the PII side; de-identified consent summaries, sample codes, gift-card
// codes and closed-form answers only on the non-PII side.
func Split(doc documents.RawDocument, now time.Time) (documents.SurveyRecord, documents.PiiSurveyRecord) {
	survey := doc.Survey

	nonPii := documents.SurveyRecord{
		CSRUID:           doc.DocumentID,
		SchemaID:         doc.SchemaID,
		Device:           doc.Device,
		Complete:         survey.Complete,
		IsDemo:           survey.IsDemo,
		Location:         survey.Location,
		Administrator:    survey.Administrator,
		Events:           survey.Events,
		ConsentSummaries: deidentifyConsents(survey.Consents),
		Samples:          survey.Samples,
		GiftCards:        survey.GiftCards,
		Responses:        filterResponses(survey.Responses),
		UpdatedAt:        now,
	}

	pii := documents.PiiSurveyRecord{
		CSRUID:        doc.DocumentID,
		SchemaID:      doc.SchemaID,
		Complete:      survey.Complete,
		IsDemo:        survey.IsDemo,
		Location:      survey.Location,
		Administrator: survey.Administrator,
		Events:        survey.Events,
		Patient:       survey.Patient,
		GPSLocation:   survey.GPSLocation,
		Consents:      survey.Consents,
		Responses:     survey.Responses,
		UpdatedAt:     now,
	}

	return nonPii, pii
}

func deidentifyConsents(consents []documents.Consent) []documents.ConsentSummary {
	if len(consents) < 1 {
		return nil
	}
	summaries := make([]documents.ConsentSummary, 0, len(consents))
	for _, c := range consents {
		summaries = append(summaries, documents.ConsentSummary{
			Terms:      c.Terms,
			SignerType: c.SignerType,
			Date:       c.Date,
			Relation:   c.Relation,
		})
	}
	return summaries
}

func filterResponses(responses []documents.Response) []documents.Response {
	if len(responses) < 1 {
		return nil
	}
	filtered := make([]documents.Response, 0, len(responses))
	for _, r := range responses {
		items := make([]documents.ResponseItem, 0, len(r.Items))
		for _, item := range r.Items {
			if item.Sensitive {
				continue
			}
			items = append(items, filterItem(item))
		}
		filtered = append(filtered, documents.Response{
			ID:    r.ID,
			Items: items,
		})
	}
	return filtered
}

func filterItem(item documents.ResponseItem) documents.ResponseItem {
	answers := make([]documents.Answer, 0, len(item.Answers))
	for _, a := range item.Answers {
		safe, keep := filterAnswer(a)
		if keep {
			answers = append(answers, safe)
		}
	}
	item.Answers = answers
	return item
}

// filterAnswer strips free-text and address values. An answer that only
// carried such a value is dropped entirely from the non-PII side.
func filterAnswer(a documents.Answer) (documents.Answer, bool) {
	a.ValueString = nil
	a.ValueAddress = nil

	keep := a.ValueBool != nil || a.ValueIndex != nil || a.ValueDateTime != nil || a.ValueDecimal != nil
	return a, keep
}
