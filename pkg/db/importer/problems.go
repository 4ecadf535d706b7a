package importer

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImportProblem records the failure history of one document. Rows are
// created on first failure and updated on every further failure of the same
// (collection, docId). They are never removed automatically: a later
// successful import leaves the row in place as an audit trail, and cleanup
// is an explicit operator action.
type ImportProblem struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Collection    string             `bson:"collection" json:"collection"`
	DocID         string             `bson:"docId" json:"docId"`
	Attempts      int                `bson:"attempts" json:"attempts"`
	LastError     string             `bson:"lastError" json:"lastError"`
	FirstFailedAt time.Time          `bson:"firstFailedAt" json:"firstFailedAt"`
	LastFailedAt  time.Time          `bson:"lastFailedAt" json:"lastFailedAt"`
}

func (dbService *ImporterDBService) createIndexForImportProblemsCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	collection := dbService.collectionImportProblems()
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "collection", Value: 1},
				{Key: "docId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "attempts", Value: -1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// RecordFailure upserts the problem row for (collection, docId) and returns
// the resulting attempt count. The increment happens inside a single
// findAndModify, so overlapping import runs cannot lose an update.
func (dbService *ImporterDBService) RecordFailure(collection string, docID string, errMsg string) (attempts int, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if collection == "" || docID == "" {
		return 0, errors.New("collection and docId must be defined")
	}

	filter := bson.M{
		"collection": collection,
		"docId":      docID,
	}
	update := bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{
			"lastError":    errMsg,
			"lastFailedAt": time.Now(),
		},
		"$setOnInsert": bson.M{
			"firstFailedAt": time.Now(),
		},
	}

	upsert := true
	after := options.After
	opts := options.FindOneAndUpdateOptions{
		Upsert:         &upsert,
		ReturnDocument: &after,
	}

	var problem ImportProblem
	err = dbService.collectionImportProblems().FindOneAndUpdate(ctx, filter, update, &opts).Decode(&problem)
	if err != nil {
		return 0, err
	}
	return problem.Attempts, nil
}

// FindProblem returns the problem row for (collection, docId), or
// mongo.ErrNoDocuments if the document never failed.
func (dbService *ImporterDBService) FindProblem(collection string, docID string) (problem ImportProblem, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"collection": collection,
		"docId":      docID,
	}
	err = dbService.collectionImportProblems().FindOne(ctx, filter).Decode(&problem)
	return problem, err
}

// GetProblems returns problem rows sorted by attempts descending, paginated.
func (dbService *ImporterDBService) GetProblems(filter bson.M, page int64, limit int64) (problems []ImportProblem, paginationInfo *PaginationInfos, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	totalCount, err := dbService.collectionImportProblems().CountDocuments(ctx, filter)
	if err != nil {
		return problems, nil, err
	}

	paginationInfo = prepPaginationInfos(totalCount, page, limit)

	skip := (paginationInfo.CurrentPage - 1) * paginationInfo.PageSize

	opts := options.Find().SetSort(bson.M{"attempts": -1}).SetSkip(skip).SetLimit(paginationInfo.PageSize)
	cursor, err := dbService.collectionImportProblems().Find(ctx, filter, opts)
	if err != nil {
		return problems, nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &problems)
	if err != nil {
		return problems, nil, err
	}

	return problems, paginationInfo, nil
}

// DeleteProblem removes the problem row for (collection, docId). Used by
// operators after manual resolution; the importer itself never deletes.
func (dbService *ImporterDBService) DeleteProblem(collection string, docID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"collection": collection,
		"docId":      docID,
	}
	res, err := dbService.collectionImportProblems().DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
