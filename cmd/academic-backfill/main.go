package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
	"github.com/noah-isme/performance-analyzer-api/internal/repository"
	"github.com/noah-isme/performance-analyzer-api/internal/service"
	"github.com/noah-isme/performance-analyzer-api/pkg/config"
	"github.com/noah-isme/performance-analyzer-api/pkg/database"
	"github.com/noah-isme/performance-analyzer-api/pkg/logger"
)

type options struct {
	migrate      bool
	phases       []models.BackfillPhase
	reset        bool
	validateOnly bool
	batchSize    int
}

func parseOptions(args []string, defaultBatchSize int) (options, error) {
	fs := flag.NewFlagSet("academic-backfill", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	migrate := fs.Bool("migrate", false, "apply pending schema migrations before backfilling")
	phase := fs.String("phase", "all", "comma separated phases: all, "+phaseNames())
	reset := fs.Bool("reset", false, "clear the checkpoints of the selected phases before running")
	validateOnly := fs.Bool("validate", false, "only print the marks validation report")
	batchSize := fs.Int("batch-size", defaultBatchSize, "rows per transaction")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *batchSize <= 0 {
		return options{}, fmt.Errorf("batch-size must be positive, got %d", *batchSize)
	}

	opts := options{migrate: *migrate, reset: *reset, validateOnly: *validateOnly, batchSize: *batchSize}
	for _, raw := range strings.Split(*phase, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" || raw == "all" {
			continue
		}
		p, ok := models.ParseBackfillPhase(raw)
		if !ok {
			return options{}, fmt.Errorf("unknown phase %q (expected all, %s)", raw, phaseNames())
		}
		opts.phases = append(opts.phases, p)
	}
	return opts, nil
}

func phaseNames() string {
	names := make([]string, len(models.BackfillPhases))
	for i, p := range models.BackfillPhases {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func printResults(w io.Writer, results []models.BackfillResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tROWS\tSKIPPED\tLAST ID\tDURATION")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", r.Phase, r.RowsAffected, r.Skipped, r.LastProcessedID, r.Duration)
	}
	tw.Flush() //nolint:errcheck
}

func printReport(w io.Writer, report *models.MarksValidationReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "total marks\t%d\n", report.Total)
	fmt.Fprintf(tw, "null subject_offering_id\t%d\n", report.NullSubjectOfferingID)
	fmt.Fprintf(tw, "null exam_session_id\t%d\n", report.NullExamSessionID)
	fmt.Fprintf(tw, "null max_marks\t%d\n", report.NullMaxMarks)
	fmt.Fprintf(tw, "null uploaded_by\t%d\n", report.NullUploadedBy)
	fmt.Fprintf(tw, "fully migrated\t%d (%.2f%%)\n", report.FullyMigrated, report.MigrationPercentage())
	tw.Flush() //nolint:errcheck
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	opts, err := parseOptions(os.Args[1:], cfg.Backfill.BatchSize)
	if err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	if opts.migrate {
		if err := database.Migrate(db.DB, logr); err != nil {
			logr.Sugar().Fatalw("failed to migrate database", "error", err)
		}
		version, err := database.MigrationVersion(db.DB, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to read migration version", "error", err)
		}
		logr.Sugar().Infow("schema up to date", "version", version)
	}

	backfill := service.NewBackfillService(repository.NewBackfillRepository(db), opts.batchSize, nil, logr)

	if !opts.validateOnly {
		if opts.reset {
			if err := backfill.Reset(ctx, opts.phases); err != nil {
				logr.Sugar().Fatalw("failed to reset checkpoints", "error", err)
			}
		}
		results, err := backfill.Run(ctx, opts.phases)
		printResults(os.Stdout, results)
		if err != nil {
			logr.Sugar().Fatalw("backfill stopped", "error", err)
		}
	}

	report, err := backfill.Validate(ctx)
	if err != nil {
		logr.Sugar().Fatalw("failed to validate marks", "error", err)
	}
	printReport(os.Stdout, report)
}
