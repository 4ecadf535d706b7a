package survey

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

func (dbService *SurveyDBService) createIndexForFeedbackCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionFeedback()
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "docId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "arrivedAt", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// UpsertFeedbackRecord writes the feedback record keyed by the document id,
// so redelivery of the same feedback document does not duplicate it.
func (dbService *SurveyDBService) UpsertFeedbackRecord(record documents.FeedbackRecord) error {
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
	_, err := dbService.collectionFeedback().ReplaceOne(ctx, filter, record, &opts)
	return err
}
