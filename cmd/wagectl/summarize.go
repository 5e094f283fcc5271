package main

import (
	"fmt"
	"strconv"

	"go-wages/internal/analysis"
	"go-wages/internal/progress"
	"go-wages/internal/wage"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <location> <year>",
	Short: "Regenerate and print the analysis of one partition",
	Args:  cobra.ExactArgs(2),
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

		topN, _ := cmd.Flags().GetInt("top-n")
		svc := analysis.NewService(
			analysis.NewRepository(gormDB),
			wage.NewRepository(gormDB),
			progress.NewService(progress.NewRepository(sqlDB)),
			nil,
			nil,
			topN,
		)

		res, err := svc.Regenerate(cmd.Context(), p)
		if err != nil {
			return err
		}

		printSummary(cmd, res.Summary)
		for _, b := range res.Pyramid.Brackets {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %8s  %5.1f%%  avg %s\n",
				b.Range, humanize.Comma(int64(b.Count)), b.Percentage, dollars(b.AvgPay))
		}
		for i, t := range res.Titles.TopTitles {
			fmt.Fprintf(cmd.OutOrStdout(), "  %2d. %-40s %6s  avg %s\n",
				i+1, t.Title, humanize.Comma(int64(t.Count)), dollars(t.AvgPay))
		}
		return nil
	},
}

func parsePartition(location, year string) (wage.Partition, error) {
	y, err := strconv.Atoi(year)
	if err != nil || y <= 0 {
		return wage.Partition{}, fmt.Errorf("invalid year %q", year)
	}
	p := wage.Partition{Location: location, Year: y}
	if !p.Valid() {
		return wage.Partition{}, fmt.Errorf("invalid partition %s", p)
	}
	return p, nil
}

func printSummary(cmd *cobra.Command, s analysis.SummaryResponse) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s/%d: %s employees, total %s, median %s, mean %s, gini %.4f\n",
		s.Location, s.Year,
		humanize.Comma(int64(s.EmployeeCount)),
		dollars(s.TotalGrossPay),
		dollars(s.MedianPay),
		dollars(s.AvgGrossPay),
		s.Gini,
	)
}

func dollars(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return "$" + humanize.CommafWithDigits(f, 2)
}
