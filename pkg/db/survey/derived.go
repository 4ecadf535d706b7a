package survey

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Derived reporting collections are read models rebuilt from the raw
// imported collections. Each rebuild runs an aggregation ending in $out, so
// the result replaces the previous content atomically and the rebuild is
// safe to repeat.

// RebuildSurveyStats recomputes overall counts (total, completed, demo) into
// the survey stats collection.
func (dbService *SurveyDBService) RebuildSurveyStats() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":           "all",
				"totalCount":    bson.M{"$sum": 1},
				"completeCount": bson.M{"$sum": bson.M{"$cond": bson.A{"$isComplete", 1, 0}}},
				"demoCount":     bson.M{"$sum": bson.M{"$cond": bson.A{"$isDemo", 1, 0}}},
			},
		},
		{"$out": COLLECTION_NAME_DERIVED_SURVEY_STATS},
	}

	cursor, err := dbService.collectionSurveyDocuments().Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return dbService.updateRefreshStamp(COLLECTION_NAME_DERIVED_SURVEY_STATS)
}

// RebuildDailyParticipation recomputes per-day document counts keyed by the
// arrival date of each survey document.
func (dbService *SurveyDBService) RebuildDailyParticipation() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id": bson.M{
					"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$updatedAt"},
				},
				"documentCount": bson.M{"$sum": 1},
				"completeCount": bson.M{"$sum": bson.M{"$cond": bson.A{"$isComplete", 1, 0}}},
			},
		},
		{"$sort": bson.M{"_id": 1}},
		{"$out": COLLECTION_NAME_DERIVED_DAILY_PARTICIPATION},
	}

	cursor, err := dbService.collectionSurveyDocuments().Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return dbService.updateRefreshStamp(COLLECTION_NAME_DERIVED_DAILY_PARTICIPATION)
}

// RebuildSampleCodes flattens the sample codes of all survey documents into
// one row per (csruid, code), for lab-side barcode lookups.
func (dbService *SurveyDBService) RebuildSampleCodes() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	pipeline := []bson.M{
		{"$unwind": "$samples"},
		{
			"$project": bson.M{
				"_id":        bson.M{"$concat": bson.A{"$csruid", ":", "$samples.code"}},
				"csruid":     "$csruid",
				"code":       "$samples.code",
				"sampleType": "$samples.sampleType",
			},
		},
		{"$out": COLLECTION_NAME_DERIVED_SAMPLE_CODES},
	}

	cursor, err := dbService.collectionSurveyDocuments().Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return dbService.updateRefreshStamp(COLLECTION_NAME_DERIVED_SAMPLE_CODES)
}

func (dbService *SurveyDBService) updateRefreshStamp(derivedCollection string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"collection": derivedCollection}
	update := bson.M{
		"$set": bson.M{
			"lastRefreshedAt": time.Now(),
		},
	}

	upsert := true
	opts := options.UpdateOptions{
		Upsert: &upsert,
	}
	_, err := dbService.collectionDerivedMeta().UpdateOne(ctx, filter, update, &opts)
	return err
}
