package pii

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

func (dbService *PiiDBService) createIndexForSurveyPiiCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionSurveyPii()
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "csruid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// UpsertPiiSurveyRecord writes the identifying projection keyed by csruid.
func (dbService *PiiDBService) UpsertPiiSurveyRecord(record documents.PiiSurveyRecord) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if record.CSRUID == "" {
		return errors.New("csruid must be defined")
	}

	filter := bson.M{"csruid": record.CSRUID}

	upsert := true
	opts := options.ReplaceOptions{
		Upsert: &upsert,
	}
	_, err := dbService.collectionSurveyPii().ReplaceOne(ctx, filter, record, &opts)
	return err
}

func (dbService *PiiDBService) GetPiiSurveyRecord(csruid string) (record documents.PiiSurveyRecord, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"csruid": csruid}
	err = dbService.collectionSurveyPii().FindOne(ctx, filter).Decode(&record)
	return record, err
}
