package survey

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldstudies/import-backend/pkg/documents"
)

func (dbService *SurveyDBService) createIndexForPhotosCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionPhotos()
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "photoId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// UpsertPhotoRecord writes the photo record keyed by the stable photo id.
func (dbService *SurveyDBService) UpsertPhotoRecord(record documents.PhotoRecord) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if record.PhotoID == "" {
		return errors.New("photoId must be defined")
	}

	filter := bson.M{"photoId": record.PhotoID}

	upsert := true
	opts := options.ReplaceOptions{
		Upsert: &upsert,
	}
	_, err := dbService.collectionPhotos().ReplaceOne(ctx, filter, record, &opts)
	return err
}

func (dbService *SurveyDBService) GetPhotoRecord(photoID string) (record documents.PhotoRecord, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"photoId": photoID}
	err = dbService.collectionPhotos().FindOne(ctx, filter).Decode(&record)
	return record, err
}
