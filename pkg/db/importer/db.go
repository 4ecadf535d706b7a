package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldstudies/import-backend/pkg/db"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	COLLECTION_NAME_IMPORT_PROBLEMS = "importProblems"
)

// ImporterDBService holds the import bookkeeping: one row per document that
// has ever failed import, keyed by (collection, docId).
type ImporterDBService struct {
	DBClient     *mongo.Client
	timeout      int
	DBNamePrefix string
}

func NewImporterDBService(configs db.DBConfig) (*ImporterDBService, error) {
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

	importerDBSc := &ImporterDBService{
		DBClient:     dbClient,
		timeout:      configs.Timeout,
		DBNamePrefix: configs.DBNamePrefix,
	}

	if configs.RunIndexCreation {
		if err := importerDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for importer DB", slog.String("error", err.Error()))
		}
	}

	return importerDBSc, nil
}

func (dbService *ImporterDBService) getDBName() string {
	return dbService.DBNamePrefix + "importerDB"
}

func (dbService *ImporterDBService) collectionImportProblems() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_IMPORT_PROBLEMS)
}

func (dbService *ImporterDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *ImporterDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for importer DB")
	return dbService.createIndexForImportProblemsCollection()
}
