package cli

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/ppiankov/qforge/internal/passage"
	"github.com/ppiankov/qforge/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show books and how many questions each has produced",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		lib := passage.NewLibrary(cfg.Paths.TextbooksDir, passage.DefaultPageSize)
		out, err := store.Open(cfg.Paths.OutputDir)
		if err != nil {
			return err
		}
		counts, err := out.CountByCollection()
		if err != nil {
			return err
		}

		fmt.Println(statusTable(lib, counts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusTable renders one row per book plus rows for collections that only
// exist in the output directory
func statusTable(lib *passage.Library, counts map[string]int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Collection", "Pages", "Records"})

	seen := make(map[string]bool)
	totalPages, totalRecords := 0, 0
	for _, book := range lib.Collections() {
		seen[book] = true
		pages := lib.PageCount(book)
		totalPages += pages
		totalRecords += counts[book]
		tw.AppendRow(table.Row{book, strconv.Itoa(pages), strconv.Itoa(counts[book])})
	}
	for collection, n := range counts {
		if seen[collection] {
			continue
		}
		totalRecords += n
		tw.AppendRow(table.Row{collection, "-", strconv.Itoa(n)})
	}

	tw.AppendFooter(table.Row{"Total", strconv.Itoa(totalPages), strconv.Itoa(totalRecords)})
	tw.SortBy([]table.SortBy{{Number: 1, Mode: table.Asc}})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render()
}
