package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ThiagoRGoveia/building-metadata/internal/config"
	"github.com/ThiagoRGoveia/building-metadata/internal/database"
	"github.com/ThiagoRGoveia/building-metadata/internal/models"
	"github.com/ThiagoRGoveia/building-metadata/pkg/checksum"
)

const fixtureOutput = `{"buildings":[{"schwerp_x":1,"schwerp_y":2,"address":"1 Main St","filename":"a.json"},{"schwerp_x":3,"schwerp_y":4,"address":"2 Oak Ave","filename":"b.json"}]}`

// MockDBManager is a mock implementation of the DBManager interface.
type MockDBManager struct {
	mock.Mock
}

func (m *MockDBManager) CreateMetadataRunsTable() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDBManager) CreateBuildingRecordsTable() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDBManager) InsertRunRecord(run models.RunRecord) error {
	args := m.Called(run)
	return args.Error(0)
}

func (m *MockDBManager) UpdateRunStatus(runID uuid.UUID, status string, errors any) error {
	args := m.Called(runID, status, errors)
	return args.Error(0)
}

func (m *MockDBManager) IsOutputAlreadyPublished(checksum string) (bool, error) {
	args := m.Called(checksum)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBManager) InsertBuildings(runID uuid.UUID, buildings []models.Building) error {
	args := m.Called(runID, buildings)
	return args.Error(0)
}

// MockPublisher is a mock implementation of the Publisher interface.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, content []byte) (string, error) {
	args := m.Called(ctx, content)
	return args.String(0), args.Error(1)
}

// buildFixtureDir lays out the a.json / b.json / notes.txt fixture.
func buildFixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.json":    `{"schwerp_x":1,"schwerp_y":2,"address":"1 Main St","filename":"a.json","extra":true}`,
		"b.json":    `{"schwerp_x":3,"schwerp_y":4,"address":"2 Oak Ave","filename":"b.json"}`,
		"notes.txt": `not a building`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func BuildTestSetup(t *testing.T) (config.Config, *MockDBManager, *MockPublisher, *recordingReporter, uuid.UUID) {
	inputDir := buildFixtureDir(t)
	cfg := config.Config{
		InputDir:         inputDir,
		OutputPath:       filepath.Join(t.TempDir(), "metadata.json"),
		Extension:        ".json",
		ProgressInterval: 100,
	}
	runID := uuid.MustParse("7f0c2a3e-5d4b-4c1a-9e8f-0a1b2c3d4e5f")
	return cfg, new(MockDBManager), new(MockPublisher), &recordingReporter{}, runID
}

func newTestService(dbManager database.DBManager, publisher *MockPublisher, reporter ProgressReporter, cfg config.Config, runID uuid.UUID) *IngestionService {
	var service *IngestionService
	if publisher == nil {
		service = NewIngestionService(dbManager, nil, NewFileProcessor(cfg.Extension), reporter, cfg)
	} else {
		service = NewIngestionService(dbManager, publisher, NewFileProcessor(cfg.Extension), reporter, cfg)
	}
	service.newID = func() uuid.UUID { return runID }
	return service
}

func TestIngestionService_Execute(t *testing.T) {
	t.Run("Expect: fixture directory to produce the combined file", func(t *testing.T) {
		cfg, _, _, reporter, runID := BuildTestSetup(t)
		service := newTestService(nil, nil, reporter, cfg, runID)

		summary, err := service.Execute(context.Background())

		require.NoError(t, err)
		content, err := os.ReadFile(cfg.OutputPath)
		require.NoError(t, err)
		assert.Equal(t, fixtureOutput, string(content))
		assert.Equal(t, 2, summary.FilesScanned)
		assert.Equal(t, 2, summary.BuildingCount)
		assert.Equal(t, checksum.CalculateHash(content), summary.Checksum)
		assert.Equal(t, runID, summary.RunID)
		assert.True(t, summary.Changed)
		assert.False(t, summary.Published)
		assert.False(t, summary.Recorded)
		assert.Empty(t, reporter.progress)
		assert.Equal(t, []string{cfg.OutputPath}, reporter.writes)
	})

	t.Run("Expect: two runs to produce byte-identical output", func(t *testing.T) {
		cfg, _, _, reporter, runID := BuildTestSetup(t)
		service := newTestService(nil, nil, reporter, cfg, runID)

		_, err := service.Execute(context.Background())
		require.NoError(t, err)
		first, err := os.ReadFile(cfg.OutputPath)
		require.NoError(t, err)

		summary, err := service.Execute(context.Background())
		require.NoError(t, err)
		second, err := os.ReadFile(cfg.OutputPath)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.False(t, summary.Changed)
	})

	t.Run("Expect: empty directory to produce an empty list", func(t *testing.T) {
		cfg, _, _, reporter, runID := BuildTestSetup(t)
		cfg.InputDir = t.TempDir()
		service := newTestService(nil, nil, reporter, cfg, runID)

		summary, err := service.Execute(context.Background())

		require.NoError(t, err)
		content, err := os.ReadFile(cfg.OutputPath)
		require.NoError(t, err)
		assert.Equal(t, `{"buildings":[]}`, string(content))
		assert.Equal(t, 0, summary.BuildingCount)
	})

	t.Run("Expect: progress at every hundredth building", func(t *testing.T) {
		cfg, _, _, reporter, runID := BuildTestSetup(t)
		cfg.InputDir = t.TempDir()
		for i := 0; i < 250; i++ {
			writeBuildingFile(t, cfg.InputDir, uuid.NewString()+".json", newDefaultBuildingRow("x"))
		}
		service := newTestService(nil, nil, reporter, cfg, runID)

		summary, err := service.Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 250, summary.BuildingCount)
		assert.Equal(t, []int{100, 200}, reporter.progress)
	})

	t.Run("Expect: missing field to abort without writing", func(t *testing.T) {
		cfg, _, _, reporter, runID := BuildTestSetup(t)
		require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "c.json"), []byte(`{"schwerp_x":5,"schwerp_y":6,"filename":"c.json"}`), 0644))
		service := newTestService(nil, nil, reporter, cfg, runID)

		_, err := service.Execute(context.Background())

		assert.ErrorIs(t, err, models.ErrMissingField)
		assert.NoFileExists(t, cfg.OutputPath)
		assert.Empty(t, reporter.writes)
	})

	t.Run("Expect: failure to leave a previous output untouched", func(t *testing.T) {
		cfg, _, _, reporter, runID := BuildTestSetup(t)
		previous := []byte(`{"buildings":["previous run"]}`)
		require.NoError(t, os.WriteFile(cfg.OutputPath, previous, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "c.json"), []byte(`{"schwerp_x":`), 0644))
		service := newTestService(nil, nil, reporter, cfg, runID)

		_, err := service.Execute(context.Background())

		assert.Error(t, err)
		content, readErr := os.ReadFile(cfg.OutputPath)
		require.NoError(t, readErr)
		assert.Equal(t, previous, content)
	})

	t.Run("Expect: missing input directory to fail", func(t *testing.T) {
		cfg, _, _, reporter, runID := BuildTestSetup(t)
		cfg.InputDir = filepath.Join(cfg.InputDir, "missing")
		service := newTestService(nil, nil, reporter, cfg, runID)

		_, err := service.Execute(context.Background())

		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.NoFileExists(t, cfg.OutputPath)
	})

	t.Run("Expect: publisher to receive the written bytes", func(t *testing.T) {
		cfg, _, publisher, reporter, runID := BuildTestSetup(t)
		publisher.On("Publish", mock.Anything, []byte(fixtureOutput)).Return("buildings/metadata.json", nil).Once()
		service := newTestService(nil, publisher, reporter, cfg, runID)

		summary, err := service.Execute(context.Background())

		require.NoError(t, err)
		assert.True(t, summary.Published)
		publisher.AssertExpectations(t)
	})

	t.Run("Expect: publisher error to be returned", func(t *testing.T) {
		cfg, _, publisher, reporter, runID := BuildTestSetup(t)
		publisher.On("Publish", mock.Anything, mock.Anything).Return("", errors.New("bucket unreachable")).Once()
		service := newTestService(nil, publisher, reporter, cfg, runID)

		_, err := service.Execute(context.Background())

		assert.ErrorContains(t, err, "bucket unreachable")
		publisher.AssertExpectations(t)
	})

	t.Run("Expect: run and buildings to be recorded", func(t *testing.T) {
		cfg, dbManager, _, reporter, runID := BuildTestSetup(t)
		sum := checksum.CalculateHash([]byte(fixtureOutput))
		dbManager.On("IsOutputAlreadyPublished", sum).Return(false, nil).Once()
		dbManager.On("InsertRunRecord", mock.MatchedBy(func(run models.RunRecord) bool {
			return run.ID == runID && run.Status == database.RUN_STATUS_PROCESSING && run.Checksum == sum && run.BuildingCount == 2 && run.InputDir == cfg.InputDir
		})).Return(nil).Once()
		dbManager.On("InsertBuildings", runID, mock.MatchedBy(func(buildings []models.Building) bool {
			return len(buildings) == 2 && buildings[0].Filename == "a.json" && buildings[1].Filename == "b.json"
		})).Return(nil).Once()
		dbManager.On("UpdateRunStatus", runID, database.RUN_STATUS_DONE, nil).Return(nil).Once()
		service := newTestService(dbManager, nil, reporter, cfg, runID)

		summary, err := service.Execute(context.Background())

		require.NoError(t, err)
		assert.True(t, summary.Recorded)
		dbManager.AssertExpectations(t)
	})

	t.Run("Expect: already recorded aggregate to be skipped", func(t *testing.T) {
		cfg, dbManager, _, reporter, runID := BuildTestSetup(t)
		dbManager.On("IsOutputAlreadyPublished", mock.Anything).Return(true, nil).Once()
		dbManager.On("InsertRunRecord", mock.Anything).Return(nil).Once()
		dbManager.On("UpdateRunStatus", runID, database.RUN_STATUS_SKIPPED, nil).Return(nil).Once()
		service := newTestService(dbManager, nil, reporter, cfg, runID)

		summary, err := service.Execute(context.Background())

		require.NoError(t, err)
		assert.False(t, summary.Recorded)
		dbManager.AssertNotCalled(t, "InsertBuildings", mock.Anything, mock.Anything)
		dbManager.AssertExpectations(t)
	})

	t.Run("Expect: insert failure to mark the run as fatal", func(t *testing.T) {
		cfg, dbManager, _, reporter, runID := BuildTestSetup(t)
		insertErr := errors.New("copy failed")
		dbManager.On("IsOutputAlreadyPublished", mock.Anything).Return(false, nil).Once()
		dbManager.On("InsertRunRecord", mock.Anything).Return(nil).Once()
		dbManager.On("InsertBuildings", runID, mock.Anything).Return(insertErr).Once()
		dbManager.On("UpdateRunStatus", runID, database.RUN_STATUS_FATAL, []string{"copy failed"}).Return(nil).Once()
		service := newTestService(dbManager, nil, reporter, cfg, runID)

		_, err := service.Execute(context.Background())

		assert.ErrorIs(t, err, insertErr)
		dbManager.AssertExpectations(t)
	})

	t.Run("Expect: checksum lookup failure to be returned", func(t *testing.T) {
		cfg, dbManager, _, reporter, runID := BuildTestSetup(t)
		dbManager.On("IsOutputAlreadyPublished", mock.Anything).Return(false, errors.New("db down")).Once()
		service := newTestService(dbManager, nil, reporter, cfg, runID)

		_, err := service.Execute(context.Background())

		assert.ErrorContains(t, err, "db down")
		dbManager.AssertNotCalled(t, "InsertRunRecord", mock.Anything)
	})
}
