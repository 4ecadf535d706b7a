package survey

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

func (dbService *SurveyDBService) createIndexForAnalyticsLogsCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionAnalyticsLogs()
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "docId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (dbService *SurveyDBService) UpsertAnalyticsRecord(record documents.AnalyticsRecord) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if record.DocID == "" {
		return errors.New("docId must be defined")
	}

	filter := bson.M{"docId": record.DocID}

	upsert := true
	opts := options.ReplaceOptions{
		Upsert: &upsert,
	}
	_, err := dbService.collectionAnalyticsLogs().ReplaceOne(ctx, filter, record, &opts)
	return err
}
