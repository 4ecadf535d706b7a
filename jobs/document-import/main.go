package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldstudies/import-backend/pkg/importer"
	"github.com/fieldstudies/import-backend/pkg/notifications"
	"github.com/fieldstudies/import-backend/pkg/objectstore"
	"github.com/fieldstudies/import-backend/pkg/refresh"
	"github.com/fieldstudies/import-backend/pkg/sourceclient"

	smtpclient "github.com/fieldstudies/import-backend/pkg/smtp-client"
)

func main() {
	slog.Info("Starting document import job")
	start := time.Now()
	ctx := context.Background()

	sourceClient := sourceclient.NewClient(conf.DocumentSource)

	photoStore, err := objectstore.NewPhotoStore(ctx, conf.PhotoStorage)
	if err != nil {
		slog.Error("Failed to init photo object storage", slog.String("error", err.Error()))
		panic(err)
	}

	var notifier importer.FeedbackNotifier
	if conf.Notifications.FeedbackEmailsEnabled {
		notifier = initFeedbackNotifier()
	}

	imp := importer.NewImporter(
		sourceClient,
		surveyDBService,
		piiDBService,
		importerDBService,
		photoStore,
		notifier,
	)

	totalProcessed := 0
	totalErrors := 0
	for _, collection := range conf.SourceCollections {
		result, err := imp.Import(ctx, collection, func() {
			slog.Debug("Import progress", slog.String("collection", collection))
		})
		if err != nil {
			slog.Error("Import batch failed", slog.String("collection", collection), slog.String("error", err.Error()))
			continue
		}

		totalProcessed += result.ProcessedCount
		totalErrors += len(result.Errors)
		slog.Info("Import batch completed",
			slog.String("collection", collection),
			slog.Int("processedCount", result.ProcessedCount),
			slog.Int("errorCount", len(result.Errors)),
		)
	}

	if conf.RunRefreshAfterImport {
		pipeline := refresh.ReportingPipeline(surveyDBService)
		stepResults := pipeline.Execute(ctx, nil)
		for _, sr := range stepResults {
			if !sr.Ok && !sr.Skipped {
				slog.Error("Derived table refresh step failed", slog.String("step", sr.Name), slog.String("error", sr.Error))
			}
		}
	}

	closeDBConnections(ctx)

	slog.Info("Document import job completed",
		slog.Int("processedCount", totalProcessed),
		slog.Int("errorCount", totalErrors),
		slog.String("duration", time.Since(start).String()),
	)
}

func initFeedbackNotifier() importer.FeedbackNotifier {
	smtpServerList := smtpclient.SmtpServerList{}
	if err := smtpServerList.ReadFromFile(conf.Notifications.SMTPServerConfigPath); err != nil {
		slog.Error("Failed to read SMTP server config", slog.String("error", err.Error()))
		panic(err)
	}

	smtpClients, err := smtpclient.NewSmtpClients(smtpServerList)
	if err != nil {
		slog.Error("Error creating SMTP clients", slog.String("error", err.Error()))
		panic(err)
	}

	return notifications.NewFeedbackEmailNotifier(smtpClients, conf.Notifications.FeedbackEmail)
}

func closeDBConnections(ctx context.Context) {
	if err := surveyDBService.DBClient.Disconnect(ctx); err != nil {
		slog.Error("Error closing Survey DB connection", slog.String("error", err.Error()))
	}
	if err := piiDBService.DBClient.Disconnect(ctx); err != nil {
		slog.Error("Error closing PII DB connection", slog.String("error", err.Error()))
	}
	if err := importerDBService.DBClient.Disconnect(ctx); err != nil {
		slog.Error("Error closing Importer DB connection", slog.String("error", err.Error()))
	}
}
