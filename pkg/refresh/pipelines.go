package refresh

import (
	"context"

	surveyDB "github.com/fieldstudies/import-backend/pkg/db/survey"
)

const PIPELINE_NAME_REPORTING = "reporting"

// ReportingPipeline is the standard post-import refresh: recompute the
// derived reporting collections of the survey DB. Step order matters only
// for readability here; none of the steps depend on another's output, so all
// are non-critical.
func ReportingPipeline(dbService *surveyDB.SurveyDBService) Pipeline {
	return Pipeline{
		Name: PIPELINE_NAME_REPORTING,
		Steps: []Step{
			{
				Name: "surveyStats",
				Run: func(ctx context.Context) error {
					return dbService.RebuildSurveyStats()
				},
			},
			{
				Name: "dailyParticipation",
				Run: func(ctx context.Context) error {
					return dbService.RebuildDailyParticipation()
				},
			},
			{
				Name: "sampleCodes",
				Run: func(ctx context.Context) error {
					return dbService.RebuildSampleCodes()
				},
			},
		},
	}
}
