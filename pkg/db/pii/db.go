package pii

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldstudies/import-backend/pkg/db"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	COLLECTION_NAME_SURVEY_PII = "surveyPii"
)

// PiiDBService is the handle to the identifying-data store. It is expected
// to point at a different database (typically a different cluster with
// stricter access control) than the de-identified survey store.
type PiiDBService struct {
	DBClient     *mongo.Client
	timeout      int
	DBNamePrefix string
}

func NewPiiDBService(configs db.DBConfig) (*PiiDBService, error) {
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

	piiDBSc := &PiiDBService{
		DBClient:     dbClient,
		timeout:      configs.Timeout,
		DBNamePrefix: configs.DBNamePrefix,
	}

	if configs.RunIndexCreation {
		if err := piiDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for PII DB", slog.String("error", err.Error()))
		}
	}

	return piiDBSc, nil
}

func (dbService *PiiDBService) getDBName() string {
	return dbService.DBNamePrefix + "piiDB"
}

func (dbService *PiiDBService) collectionSurveyPii() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_SURVEY_PII)
}

func (dbService *PiiDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *PiiDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for PII DB")
	return dbService.createIndexForSurveyPiiCollection()
}
