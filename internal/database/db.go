package database

import (
	"github.com/google/uuid"

	"github.com/ThiagoRGoveia/building-metadata/internal/models"
)

const (
	RUN_STATUS_PROCESSING = "PROCESSING"
	RUN_STATUS_DONE       = "DONE"
	RUN_STATUS_SKIPPED    = "SKIPPED"
	RUN_STATUS_FATAL      = "FATAL"
)

type DBManager interface {
	CreateMetadataRunsTable() error
	CreateBuildingRecordsTable() error
	InsertRunRecord(run models.RunRecord) error
	UpdateRunStatus(runID uuid.UUID, status string, errors any) error
	IsOutputAlreadyPublished(checksum string) (bool, error)
	InsertBuildings(runID uuid.UUID, buildings []models.Building) error
}
