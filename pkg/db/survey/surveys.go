package survey

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

func (dbService *SurveyDBService) createIndexForSurveyDocumentsCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionSurveyDocuments()
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "csruid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "updatedAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "isComplete", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// UpsertSurveyRecord writes the de-identified projection keyed by csruid.
// Insert if absent, overwrite wholesale if present, so replays of the same
// source document converge to the same row.
func (dbService *SurveyDBService) UpsertSurveyRecord(record documents.SurveyRecord) error {
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
	_, err := dbService.collectionSurveyDocuments().ReplaceOne(ctx, filter, record, &opts)
	return err
}

func (dbService *SurveyDBService) GetSurveyRecord(csruid string) (record documents.SurveyRecord, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"csruid": csruid}
	err = dbService.collectionSurveyDocuments().FindOne(ctx, filter).Decode(&record)
	return record, err
}

func (dbService *SurveyDBService) GetSurveyRecordCount(filter bson.M) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	return dbService.collectionSurveyDocuments().CountDocuments(ctx, filter)
}
