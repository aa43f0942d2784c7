package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ThiagoRGoveia/building-metadata/internal/config"
	"github.com/ThiagoRGoveia/building-metadata/internal/database"
	"github.com/ThiagoRGoveia/building-metadata/internal/ingestion"
	"github.com/ThiagoRGoveia/building-metadata/internal/storage"
)

type flags struct {
	configPath    string
	outputPath    string
	extension     string
	progressEvery int
}

func setup(ctx context.Context, cmd *cobra.Command, args []string, f flags) (*ingestion.IngestionService, func(), error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if len(args) > 0 {
		cfg.InputDir = args[0]
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputPath = f.outputPath
	}
	if cmd.Flags().Changed("ext") {
		cfg.Extension = f.extension
	}
	if cmd.Flags().Changed("progress-every") {
		cfg.ProgressInterval = f.progressEvery
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	cleanupFunc := func() {}

	var dbManager database.DBManager
	if cfg.DatabaseURL != "" {
		dbpool, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		dbManager = database.NewPostgresDBManager(ctx, dbpool)
		cleanupFunc = func() {
			dbpool.Close()
		}
	}

	var publisher storage.Publisher
	if cfg.ObjectStore.Enabled() {
		minioPublisher, err := storage.NewMinioPublisher(cfg.ObjectStore)
		if err != nil {
			cleanupFunc()
			return nil, nil, err
		}
		publisher = minioPublisher
	}

	handler := ingestion.NewIngestionService(
		dbManager,
		publisher,
		ingestion.NewFileProcessor(cfg.Extension),
		ingestion.StdoutReporter{Out: os.Stdout},
		*cfg,
	)

	return handler, cleanupFunc, nil
}

func execute(ctx context.Context, handler *ingestion.IngestionService) error {
	log.Println("Starting aggregation process...")
	summary, err := handler.Execute(ctx)
	if err != nil {
		return err
	}
	log.Printf("Run %s: %d buildings written to %s", summary.RunID, summary.BuildingCount, summary.OutputPath)
	return nil
}

func cleanup(cleanupFunc func()) {
	log.Println("Cleaning up resources...")
	cleanupFunc()
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "concat [input-dir]",
		Short:         "Combine per-building metadata files into a single metadata.json",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime := time.Now()

			handler, cleanupFunc, err := setup(cmd.Context(), cmd, args, f)
			if err != nil {
				return err
			}
			defer cleanup(cleanupFunc)

			if err := execute(cmd.Context(), handler); err != nil {
				return fmt.Errorf("error during aggregation: %w", err)
			}

			log.Println("Aggregation process finished.")
			log.Printf("Execution time: %s\n", time.Since(startTime))
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML config file (optional)")
	cmd.Flags().StringVarP(&f.outputPath, "output", "o", "metadata.json", "output file path")
	cmd.Flags().StringVar(&f.extension, "ext", ".json", "extension of the metadata files to combine")
	cmd.Flags().IntVar(&f.progressEvery, "progress-every", 100, "print the running count every N buildings (0 disables)")
	return cmd
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
