package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ThiagoRGoveia/building-metadata/internal/config"
	"github.com/ThiagoRGoveia/building-metadata/internal/database"
	"github.com/ThiagoRGoveia/building-metadata/internal/models"
	"github.com/ThiagoRGoveia/building-metadata/internal/storage"
	"github.com/ThiagoRGoveia/building-metadata/pkg/checksum"
)

type IngestionService struct {
	dbManager     database.DBManager
	publisher     storage.Publisher
	fileProcessor Processor
	reporter      ProgressReporter
	config        config.Config
	now           func() time.Time
	newID         func() uuid.UUID
}

// NewIngestionService wires the aggregation run. dbManager and publisher are
// optional; a nil value turns the matching step off.
func NewIngestionService(dbManager database.DBManager, publisher storage.Publisher, processor Processor, reporter ProgressReporter, cfg config.Config) *IngestionService {
	if reporter == nil {
		reporter = noopReporter{}
	}
	return &IngestionService{
		dbManager:     dbManager,
		publisher:     publisher,
		fileProcessor: processor,
		reporter:      reporter,
		config:        cfg,
		now:           time.Now,
		newID:         uuid.New,
	}
}

// Execute runs the aggregation once. Every qualifying file must load and
// project cleanly before anything is written; the first failure aborts the
// run and leaves the output path untouched.
func (h *IngestionService) Execute(ctx context.Context) (models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:      h.newID(),
		OutputPath: h.config.OutputPath,
	}

	// Step 1: scan, load and project every qualifying file in order.
	log.Printf("Scanning for files in: %s", h.config.InputDir)
	aggregator := NewAggregator(h.config.ProgressInterval, h.reporter)
	for fileInfo, err := range h.fileProcessor.ScanForFiles(h.config.InputDir) {
		if err != nil {
			return summary, err
		}
		summary.FilesScanned++

		building, err := h.fileProcessor.LoadBuilding(fileInfo)
		if err != nil {
			return summary, err
		}
		aggregator.Add(building)
	}
	summary.BuildingCount = aggregator.Count()
	log.Printf("Collected %d buildings.", summary.BuildingCount)

	// Step 2: write the output file.
	previousChecksum, err := checksum.GetFileChecksum(h.config.OutputPath)
	if err != nil {
		previousChecksum = ""
	}
	aggregate := aggregator.Aggregate()
	content, err := NewWriter(h.config.OutputPath, h.reporter).Write(aggregate)
	if err != nil {
		return summary, err
	}
	summary.Checksum = checksum.CalculateHash(content)
	summary.Changed = previousChecksum != summary.Checksum
	log.Printf("Wrote %s (%d bytes, checksum %s)", h.config.OutputPath, len(content), summary.Checksum)
	if !summary.Changed {
		log.Printf("Output unchanged since the previous run.")
	}

	// Step 3: optional upload of the same bytes.
	if h.publisher != nil {
		location, err := h.publisher.Publish(ctx, content)
		if err != nil {
			return summary, fmt.Errorf("failed to publish %s: %w", h.config.OutputPath, err)
		}
		summary.Published = true
		log.Printf("Published aggregate to %s", location)
	}

	// Step 4: optional run bookkeeping in the database.
	if h.dbManager != nil {
		recorded, err := h.recordRun(summary, aggregate.Buildings)
		if err != nil {
			return summary, err
		}
		summary.Recorded = recorded
	}

	return summary, nil
}

// recordRun stores the run and its buildings. A checksum already recorded as
// DONE means the same aggregate is in the database, so the run is marked
// SKIPPED and no buildings are inserted.
func (h *IngestionService) recordRun(summary models.RunSummary, buildings []models.Building) (bool, error) {
	alreadyPublished, err := h.dbManager.IsOutputAlreadyPublished(summary.Checksum)
	if err != nil {
		return false, err
	}

	run := models.RunRecord{
		ID:            summary.RunID,
		InputDir:      h.config.InputDir,
		OutputPath:    h.config.OutputPath,
		ProcessedAt:   h.now(),
		Status:        database.RUN_STATUS_PROCESSING,
		Checksum:      summary.Checksum,
		BuildingCount: summary.BuildingCount,
	}
	if err := h.dbManager.InsertRunRecord(run); err != nil {
		return false, err
	}

	if alreadyPublished {
		log.Printf("Aggregate with checksum %s already recorded. Skipping building insert.", summary.Checksum)
		if err := h.dbManager.UpdateRunStatus(run.ID, database.RUN_STATUS_SKIPPED, nil); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := h.dbManager.InsertBuildings(run.ID, buildings); err != nil {
		if updateErr := h.dbManager.UpdateRunStatus(run.ID, database.RUN_STATUS_FATAL, []string{err.Error()}); updateErr != nil {
			log.Printf("Failed to update status for run %s: %v", run.ID, updateErr)
		}
		return false, err
	}

	if err := h.dbManager.UpdateRunStatus(run.ID, database.RUN_STATUS_DONE, nil); err != nil {
		return false, err
	}

	return true, nil
}
