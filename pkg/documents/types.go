package documents

import "time"

// DocumentType discriminates the payload shape of a raw document. The set is
// closed: the importer dispatches exhaustively over these values and treats
// anything else as a validation failure.
type DocumentType string

const (
	DOCUMENT_TYPE_SURVEY    DocumentType = "SURVEY"
	DOCUMENT_TYPE_PHOTO     DocumentType = "PHOTO"
	DOCUMENT_TYPE_FEEDBACK  DocumentType = "FEEDBACK"
	DOCUMENT_TYPE_ANALYTICS DocumentType = "ANALYTICS"
)

// Schema version this backend understands. Documents declaring a different
// schemaId are rejected before any processing.
const CURRENT_SCHEMA_ID = 1

// RawDocument is one externally produced unit of data as delivered by the
// document store. (Collection, DocumentID) is globally unique and stable, so
// replays of the same source event are safe to apply again.
type RawDocument struct {
	Collection   string       `json:"collection"`
	DocumentID   string       `json:"documentId"`
	SchemaID     int          `json:"schemaId"`
	DocumentType DocumentType `json:"documentType"`
	Device       DeviceInfo   `json:"device"`

	// exactly one of these is set, matching DocumentType
	Survey    *SurveyPayload    `json:"survey,omitempty"`
	Photo     *PhotoPayload     `json:"photo,omitempty"`
	Feedback  *FeedbackPayload  `json:"feedback,omitempty"`
	Analytics *AnalyticsPayload `json:"analytics,omitempty"`
}

type DeviceInfo struct {
	Installation  string `bson:"installation" json:"installation"`
	ClientVersion string `bson:"clientVersion" json:"clientVersion"`
	DeviceName    string `bson:"deviceName,omitempty" json:"deviceName,omitempty"`
	YearClass     string `bson:"yearClass,omitempty" json:"yearClass,omitempty"`
	Platform      string `bson:"platform,omitempty" json:"platform,omitempty"`
}

type SurveyPayload struct {
	Complete      bool            `json:"isComplete"`
	IsDemo        bool            `json:"isDemo"`
	Location      string          `json:"location,omitempty"`
	Administrator string          `json:"administrator,omitempty"`
	Events        []TimelineEvent `json:"events,omitempty"`
	Patient       *PatientInfo    `json:"patient,omitempty"`
	GPSLocation   *GPSLocation    `json:"gpsLocation,omitempty"`
	Consents      []Consent       `json:"consents,omitempty"`
	Samples       []Sample        `json:"samples,omitempty"`
	GiftCards     []GiftCard      `json:"giftCards,omitempty"`
	Responses     []Response      `json:"responses,omitempty"`
}

type TimelineEvent struct {
	Kind  string `bson:"kind" json:"kind"`
	At    string `bson:"at" json:"at"`
	RefID string `bson:"refId,omitempty" json:"refId,omitempty"`
}

type PatientInfo struct {
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	Birthdate string    `bson:"birthdate,omitempty" json:"birthdate,omitempty"`
	Telecom   []Telecom `bson:"telecom,omitempty" json:"telecom,omitempty"`
	Addresses []Address `bson:"addresses,omitempty" json:"addresses,omitempty"`
}

type Telecom struct {
	System string `bson:"system" json:"system"`
	Value  string `bson:"value" json:"value"`
}

type Address struct {
	Use        string   `bson:"use,omitempty" json:"use,omitempty"`
	Line       []string `bson:"line,omitempty" json:"line,omitempty"`
	City       string   `bson:"city,omitempty" json:"city,omitempty"`
	State      string   `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string   `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	Country    string   `bson:"country,omitempty" json:"country,omitempty"`
}

type GPSLocation struct {
	Latitude  string `bson:"latitude" json:"latitude"`
	Longitude string `bson:"longitude" json:"longitude"`
}

type Consent struct {
	Terms      string `bson:"terms" json:"terms"`
	SignerType string `bson:"signerType" json:"signerType"`
	Date       string `bson:"date" json:"date"`
	Relation   string `bson:"relation,omitempty" json:"relation,omitempty"`
	Name       string `bson:"name,omitempty" json:"name,omitempty"`
	Signature  string `bson:"signature,omitempty" json:"signature,omitempty"`
}

// ConsentSummary is the de-identified consent projection: terms, signer type,
// date and relation survive, name and signature never do.
type ConsentSummary struct {
	Terms      string `bson:"terms" json:"terms"`
	SignerType string `bson:"signerType" json:"signerType"`
	Date       string `bson:"date" json:"date"`
	Relation   string `bson:"relation,omitempty" json:"relation,omitempty"`
}

type Sample struct {
	SampleType string `bson:"sampleType" json:"sampleType"`
	Code       string `bson:"code" json:"code"`
}

type GiftCard struct {
	BarcodeType  string `bson:"barcodeType" json:"barcodeType"`
	Code         string `bson:"code" json:"code"`
	GiftCardType string `bson:"giftCardType,omitempty" json:"giftCardType,omitempty"`
}

type Response struct {
	ID    string         `bson:"id" json:"id"`
	Items []ResponseItem `bson:"items,omitempty" json:"items,omitempty"`
}

type ResponseItem struct {
	QuestionID string   `bson:"id" json:"id"`
	Text       string   `bson:"text,omitempty" json:"text,omitempty"`
	Sensitive  bool     `bson:"sensitive,omitempty" json:"sensitive,omitempty"`
	Answers    []Answer `bson:"answers,omitempty" json:"answers,omitempty"`
}

// Answer holds at most one value field. Closed-form values (bool, index,
// datetime, decimal) are safe for the de-identified projection; valueString
// and valueAddress can carry identifying free text and are confined to the
// PII projection.
type Answer struct {
	ValueBool     *bool    `bson:"valueBoolean,omitempty" json:"valueBoolean,omitempty"`
	ValueIndex    *int     `bson:"valueIndex,omitempty" json:"valueIndex,omitempty"`
	ValueDateTime *string  `bson:"valueDateTime,omitempty" json:"valueDateTime,omitempty"`
	ValueDecimal  *float64 `bson:"valueDecimal,omitempty" json:"valueDecimal,omitempty"`
	ValueString   *string  `bson:"valueString,omitempty" json:"valueString,omitempty"`
	ValueAddress  *Address `bson:"valueAddress,omitempty" json:"valueAddress,omitempty"`
}

type PhotoPayload struct {
	PhotoID string `json:"photoId"`
	TakenAt string `json:"takenAt"`
}

type FeedbackPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type AnalyticsPayload struct {
	Timestamp string          `json:"timestamp"`
	Logs      []LogEntry      `json:"logs,omitempty"`
	Events    []TimelineEvent `json:"events,omitempty"`
}

type LogEntry struct {
	Timestamp string `bson:"timestamp" json:"timestamp"`
	Level     string `bson:"level" json:"level"`
	Text      string `bson:"text" json:"text"`
}

// SurveyRecord is the de-identified survey projection persisted in the
// non-PII store, keyed by csruid.
type SurveyRecord struct {
	CSRUID           string           `bson:"csruid" json:"csruid"`
	SchemaID         int              `bson:"schemaId" json:"schemaId"`
	Device           DeviceInfo       `bson:"device" json:"device"`
	Complete         bool             `bson:"isComplete" json:"isComplete"`
	IsDemo           bool             `bson:"isDemo" json:"isDemo"`
	Location         string           `bson:"location,omitempty" json:"location,omitempty"`
	Administrator    string           `bson:"administrator,omitempty" json:"administrator,omitempty"`
	Events           []TimelineEvent  `bson:"events,omitempty" json:"events,omitempty"`
	ConsentSummaries []ConsentSummary `bson:"consents,omitempty" json:"consents,omitempty"`
	Samples          []Sample         `bson:"samples,omitempty" json:"samples,omitempty"`
	GiftCards        []GiftCard       `bson:"giftCards,omitempty" json:"giftCards,omitempty"`
	Responses        []Response       `bson:"responses,omitempty" json:"responses,omitempty"`
	UpdatedAt        time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// PiiSurveyRecord is the identifying survey projection, persisted in the
// separate PII store under the same csruid.
type PiiSurveyRecord struct {
	CSRUID        string          `bson:"csruid" json:"csruid"`
	SchemaID      int             `bson:"schemaId" json:"schemaId"`
	Complete      bool            `bson:"isComplete" json:"isComplete"`
	IsDemo        bool            `bson:"isDemo" json:"isDemo"`
	Location      string          `bson:"location,omitempty" json:"location,omitempty"`
	Administrator string          `bson:"administrator,omitempty" json:"administrator,omitempty"`
	Events        []TimelineEvent `bson:"events,omitempty" json:"events,omitempty"`
	Patient       *PatientInfo    `bson:"patient,omitempty" json:"patient,omitempty"`
	GPSLocation   *GPSLocation    `bson:"gpsLocation,omitempty" json:"gpsLocation,omitempty"`
	Consents      []Consent       `bson:"consents,omitempty" json:"consents,omitempty"`
	Responses     []Response      `bson:"responses,omitempty" json:"responses,omitempty"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// PhotoRecord stores the downloaded photo bytes base64-encoded, keyed by the
// stable photo id. Re-import of the same id replaces the record wholesale.
type PhotoRecord struct {
	PhotoID   string     `bson:"photoId" json:"photoId"`
	TakenAt   string     `bson:"takenAt" json:"takenAt"`
	Device    DeviceInfo `bson:"device" json:"device"`
	Data      string     `bson:"data" json:"data"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

type FeedbackRecord struct {
	DocID     string     `bson:"docId" json:"docId"`
	Subject   string     `bson:"subject" json:"subject"`
	Body      string     `bson:"body" json:"body"`
	Device    DeviceInfo `bson:"device" json:"device"`
	ArrivedAt time.Time  `bson:"arrivedAt" json:"arrivedAt"`
}

type AnalyticsRecord struct {
	DocID     string          `bson:"docId" json:"docId"`
	Timestamp string          `bson:"timestamp" json:"timestamp"`
	Logs      []LogEntry      `bson:"logs,omitempty" json:"logs,omitempty"`
	Events    []TimelineEvent `bson:"events,omitempty" json:"events,omitempty"`
	Device    DeviceInfo      `bson:"device" json:"device"`
	ArrivedAt time.Time       `bson:"arrivedAt" json:"arrivedAt"`
}
