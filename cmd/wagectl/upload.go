package main

import (
	"fmt"
	"sort"

	"go-wages/internal/analysis"
	"go-wages/internal/ingest"
	"go-wages/internal/messaging/kafka"
	"go-wages/internal/progress"
	"go-wages/internal/wage"
	"go-wages/internal/wagefile"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <dir|file>",
	Short: "Ingest every JSON wage file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		files, err := ingest.CollectFiles(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no .json files under %s", args[0])
		}

		gormDB, sqlDB, err := openDB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		wageRepo := wage.NewRepository(gormDB)
		progressRepo := progress.NewRepository(sqlDB)
		ledger := progress.NewLedgerWithOutbox(sqlDB, progressRepo, kafka.NewOutboxRepository(sqlDB))
		engine := ingest.NewEngine(wageRepo, ledger, ingest.WithChunkSize(viper.GetInt("chunk-size")))

		var opts []wagefile.Option
		if loc, year := viper.GetString("location"), viper.GetInt("year"); loc != "" || year > 0 {
			opts = append(opts, wagefile.WithDefaultPartition(loc, year))
		}

		bar := pb.StartNew(len(files))
		uploader := ingest.NewBatchUploader(engine, viper.GetInt("workers"), opts)
		results := uploader.Run(ctx, files, func(ingest.FileResult) { bar.Increment() })
		bar.Finish()

		var (
			totalSize int64
			records   int
			failed    int
			completed = map[wage.Partition]bool{}
		)
		for _, r := range results {
			totalSize += r.Size
			records += r.Result.Succeeded
			if r.Err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", r.Path, r.Err)
				continue
			}
			if r.Result.Status == ingest.StatusCompleted {
				completed[r.Partition] = true
				for _, op := range r.Result.OtherPartitions {
					completed[op] = true
				}
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s files (%s), %s records, %s partitions, %d failed\n",
			humanize.Comma(int64(len(files))),
			humanize.Bytes(uint64(totalSize)),
			humanize.Comma(int64(records)),
			humanize.Comma(int64(len(completed))),
			failed,
		)

		if !viper.GetBool("regenerate") || len(completed) == 0 {
			return nil
		}

		partitions := make([]wage.Partition, 0, len(completed))
		for p := range completed {
			partitions = append(partitions, p)
		}
		sort.Slice(partitions, func(i, j int) bool {
			return partitions[i].String() < partitions[j].String()
		})

		svc := analysis.NewService(
			analysis.NewRepository(gormDB),
			wageRepo,
			progress.NewService(progressRepo),
			nil,
			nil,
			viper.GetInt("top-n"),
		)
		for _, p := range partitions {
			res, err := svc.Regenerate(ctx, p)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "regenerate %s: %v\n", p, err)
				continue
			}
			printSummary(cmd, res.Summary)
		}
		return nil
	},
}
