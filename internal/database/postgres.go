package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ThiagoRGoveia/building-metadata/internal/models"
)

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return dbpool, nil
}

type PostgresDBManager struct {
	dbpool *pgxpool.Pool
	ctx    context.Context
}

func NewPostgresDBManager(ctx context.Context, pool *pgxpool.Pool) *PostgresDBManager {
	return &PostgresDBManager{dbpool: pool, ctx: ctx}
}

func (m *PostgresDBManager) CreateMetadataRunsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS metadata_runs (
		id UUID PRIMARY KEY,
		input_dir TEXT NOT NULL,
		output_path TEXT NOT NULL,
		processed_at TIMESTAMP NOT NULL,
		status VARCHAR(50) NOT NULL CHECK (status IN ('PROCESSING', 'DONE', 'SKIPPED', 'FATAL')),
		checksum VARCHAR(64),
		building_count INTEGER NOT NULL DEFAULT 0,
		errors jsonb
	);
	CREATE INDEX IF NOT EXISTS idx_metadata_runs_checksum ON metadata_runs (checksum);`

	_, err := m.dbpool.Exec(m.ctx, query)
	if err != nil {
		return fmt.Errorf("error creating metadata_runs table: %w", err)
	}

	return nil
}

// CreateBuildingRecordsTable creates the table holding one row per building of
// every recorded run. Coordinates are kept as text because the source files
// mix JSON numbers and decimal-comma strings.
func (m *PostgresDBManager) CreateBuildingRecordsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS building_records (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES metadata_runs (id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		filename TEXT NOT NULL,
		address TEXT NOT NULL,
		schwerp_x TEXT NOT NULL,
		schwerp_y TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_building_records_filename ON building_records (filename);`

	_, err := m.dbpool.Exec(m.ctx, query)
	if err != nil {
		return fmt.Errorf("error creating building_records table: %w", err)
	}

	return nil
}

func (m *PostgresDBManager) InsertRunRecord(run models.RunRecord) error {
	query := `
	INSERT INTO metadata_runs (id, input_dir, output_path, processed_at, status, checksum, building_count)
	VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := m.dbpool.Exec(m.ctx, query, run.ID, run.InputDir, run.OutputPath, run.ProcessedAt, run.Status, run.Checksum, run.BuildingCount)
	if err != nil {
		return fmt.Errorf("error inserting run record: %w", err)
	}

	return nil
}

func (m *PostgresDBManager) UpdateRunStatus(runID uuid.UUID, status string, errors any) error {
	query := `
	UPDATE metadata_runs
	SET status = $1,
		errors = $2
	WHERE id = $3;`

	_, err := m.dbpool.Exec(m.ctx, query, status, errors, runID)
	if err != nil {
		return fmt.Errorf("error updating run status: %w", err)
	}

	return nil
}

func (m *PostgresDBManager) IsOutputAlreadyPublished(checksum string) (bool, error) {
	query := `
	SELECT id
	FROM metadata_runs
	WHERE checksum = $1 AND status = 'DONE'
	LIMIT 1;`

	var id uuid.UUID

	err := m.dbpool.QueryRow(m.ctx, query, checksum).Scan(&id)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error finding run record by checksum: %w", err)
	}

	return true, nil
}

// InsertBuildings bulk loads the run's buildings with COPY in one transaction.
func (m *PostgresDBManager) InsertBuildings(runID uuid.UUID, buildings []models.Building) error {
	tx, err := m.dbpool.Begin(m.ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(m.ctx)

	// The column order here must match the values returned below.
	columnNames := []string{"run_id", "position", "filename", "address", "schwerp_x", "schwerp_y"}

	copySource := pgx.CopyFromSlice(len(buildings), func(i int) ([]any, error) {
		building := buildings[i]
		return []any{
			runID,
			i,
			building.Name(),
			building.Street(),
			models.ValueText(building.SchwerpX),
			models.ValueText(building.SchwerpY),
		}, nil
	})

	log.Printf("Bulk loading %d buildings for run %s", len(buildings), runID)
	_, err = tx.CopyFrom(m.ctx, pgx.Identifier{"building_records"}, columnNames, copySource)
	if err != nil {
		return fmt.Errorf("unable to copy buildings for run %s: %w", runID, err)
	}

	return tx.Commit(m.ctx)
}
