package main

import (
	"fmt"

	"go-wages/internal/export"
	"go-wages/internal/wage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <location> <year> <out.parquet>",
	Short: "Write every stored record of a partition to a Parquet file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parsePartition(args[0], args[1])
		if err != nil {
			return err
		}

		gormDB, sqlDB, err := openDB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		n, err := export.WritePartitionFile(cmd.Context(), wage.NewRepository(gormDB), p, args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s records of %s to %s\n", humanize.Comma(int64(n)), p, args[2])
		return nil
	},
}
