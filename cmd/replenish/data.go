package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/autoreplenish/internal/config"
	"github.com/andresuchdata/autoreplenish/internal/drive"
	"github.com/andresuchdata/autoreplenish/internal/pipeline"
	"github.com/andresuchdata/autoreplenish/internal/repository"
	"github.com/andresuchdata/autoreplenish/internal/repository/postgres"
	"github.com/andresuchdata/autoreplenish/internal/storage"
	"github.com/andresuchdata/autoreplenish/pkg/logger"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Create the inventory, allocation and order tables",
		Flags:  []cli.Flag{newDBURLFlag()},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			if _, err := dbFrom(c).ExecContext(c.Context, postgres.Schema); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
			logger.Log.Info().Msg("schema applied")
			return nil
		},
	}
}

func fetchCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download inventory snapshots from object storage or Google Drive",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Value: "s3", Usage: "s3 or drive"},
			&cli.StringFlag{Name: "dest", Value: cfg.App.SnapshotDir, Usage: "Local directory for downloaded files"},
			&cli.StringFlag{Name: "prefix", Value: cfg.Storage.Prefix, Usage: "Object key prefix (s3)"},
			&cli.StringFlag{Name: "key", Usage: "Fetch a single object key instead of listing the prefix (s3)"},
			&cli.StringFlag{Name: "folder", Value: cfg.Drive.FolderPath, Usage: "Drive folder path, e.g. inventory/daily (drive)"},
		},
		Action: func(c *cli.Context) error {
			var (
				paths []string
				err   error
			)

			switch strings.ToLower(c.String("source")) {
			case "s3":
				var client *storage.S3Client
				client, err = storage.NewS3Client(storage.S3Config{
					Endpoint:  cfg.Storage.Endpoint,
					AccessKey: cfg.Storage.AccessKey,
					SecretKey: cfg.Storage.SecretKey,
					Bucket:    cfg.Storage.Bucket,
					Region:    cfg.Storage.Region,
					UseSSL:    cfg.Storage.UseSSL,
				})
				if err != nil {
					return err
				}
				paths, err = storage.FetchSnapshots(c.Context, client, c.String("prefix"), c.String("key"), c.String("dest"))
			case "drive":
				if cfg.Drive.CredentialsJSON == "" {
					return fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON is not set")
				}
				var svc *drive.Service
				svc, err = drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
				if err != nil {
					return err
				}
				var folderID string
				folderID, err = svc.FindFolderByPath(c.Context, c.String("folder"))
				if err != nil {
					return err
				}
				paths, err = drive.NewDownloader(svc).DownloadSnapshots(c.Context, drive.DownloadOptions{
					FolderID:    folderID,
					DownloadDir: c.String("dest"),
				})
			default:
				return fmt.Errorf("unknown source %q, expected s3 or drive", c.String("source"))
			}
			if err != nil {
				return err
			}

			for _, p := range paths {
				fmt.Fprintln(c.App.Writer, p)
			}
			logger.Log.Info().Int("files", len(paths)).Str("dest", c.String("dest")).Msg("snapshots fetched")
			return nil
		},
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Load snapshot files into Postgres",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{Name: "dir", Usage: "Directory with .csv/.xlsx snapshot files", Required: true},
			&cli.TimestampFlag{Name: "date", Layout: "2006-01-02", Usage: "Snapshot date for files without a YYYYMMDD name prefix"},
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "Files read concurrently"},
			&cli.IntFlag{Name: "retries", Value: 3, Usage: "Attempts per file and per database write"},
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			paths, err := snapshotFiles(c.String("dir"))
			if err != nil {
				return err
			}

			cfg := pipeline.DefaultConfig()
			cfg.WorkerCount = c.Int("workers")
			cfg.RetryAttempts = c.Int("retries")
			if date := c.Timestamp("date"); date != nil {
				cfg.FallbackDate = *date
			}

			db := dbFrom(c)
			orchestrator := pipeline.NewOrchestrator(pipeline.NewRepository(db), repository.NewIngestRepository(db), cfg)
			runs, err := orchestrator.Run(c.Context, paths)
			if err != nil {
				return err
			}

			rows := 0
			for _, r := range runs {
				rows += r.TotalRows
			}
			logger.Log.Info().Int("files", len(paths)).Int("runs", len(runs)).Int("rows", rows).Msg("snapshots ingested")
			return nil
		},
	}
}

// snapshotFiles lists .csv and .xlsx files under dir, sorted by path.
func snapshotFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".csv", ".xlsx":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no snapshot files in %s", dir)
	}

	sort.Strings(paths)
	return paths, nil
}
