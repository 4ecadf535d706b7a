package survey

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldstudies/import-backend/pkg/db"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection names
const (
	COLLECTION_NAME_SURVEY_DOCUMENTS = "surveyDocuments"
	COLLECTION_NAME_PHOTOS           = "photos"
	COLLECTION_NAME_FEEDBACK         = "feedback"
	COLLECTION_NAME_ANALYTICS_LOGS   = "analyticsLogs"

	// derived reporting collections, rebuilt by the refresh pipeline
	COLLECTION_NAME_DERIVED_SURVEY_STATS        = "derivedSurveyStats"
	COLLECTION_NAME_DERIVED_DAILY_PARTICIPATION = "derivedDailyParticipation"
	COLLECTION_NAME_DERIVED_SAMPLE_CODES        = "derivedSampleCodes"
	COLLECTION_NAME_DERIVED_META                = "derivedMeta"
)

// SurveyDBService is the handle to the de-identified document store. It never
// receives patient identity, GPS or free-text answer values; those live in
// the separate PII store.
type SurveyDBService struct {
	DBClient     *mongo.Client
	timeout      int
	DBNamePrefix string
}

func NewSurveyDBService(configs db.DBConfig) (*SurveyDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()

	if err != nil {
		return nil, err
	}

	surveyDBSc := &SurveyDBService{
		DBClient:     dbClient,
		timeout:      configs.Timeout,
		DBNamePrefix: configs.DBNamePrefix,
	}

	if configs.RunIndexCreation {
		if err := surveyDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for survey DB", slog.String("error", err.Error()))
		}
	}

	return surveyDBSc, nil
}

func (dbService *SurveyDBService) getDBName() string {
	return dbService.DBNamePrefix + "surveyDB"
}

func (dbService *SurveyDBService) collectionSurveyDocuments() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_SURVEY_DOCUMENTS)
}

func (dbService *SurveyDBService) collectionPhotos() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_PHOTOS)
}

func (dbService *SurveyDBService) collectionFeedback() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_FEEDBACK)
}

func (dbService *SurveyDBService) collectionAnalyticsLogs() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_ANALYTICS_LOGS)
}

func (dbService *SurveyDBService) collectionDerivedMeta() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_DERIVED_META)
}

func (dbService *SurveyDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *SurveyDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for survey DB")

	if err := dbService.createIndexForSurveyDocumentsCollection(); err != nil {
		slog.Error("Error creating index for survey documents", slog.String("error", err.Error()))
	}
	if err := dbService.createIndexForPhotosCollection(); err != nil {
		slog.Error("Error creating index for photos", slog.String("error", err.Error()))
	}
	if err := dbService.createIndexForFeedbackCollection(); err != nil {
		slog.Error("Error creating index for feedback", slog.String("error", err.Error()))
	}
	if err := dbService.createIndexForAnalyticsLogsCollection(); err != nil {
		slog.Error("Error creating index for analytics logs", slog.String("error", err.Error()))
	}
	return nil
}
