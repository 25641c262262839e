package main

import (
	"github.com/spf13/cobra"

	"github.com/ignite/shipment-importer/internal/datanorm"
	"github.com/ignite/shipment-importer/internal/domain"
)

type parseOutput struct {
	Headers          []string               `json:"headers"`
	SampleRows       []domain.RawRow        `json:"sample_rows"`
	TotalRows        int                    `json:"total_rows"`
	SuggestedMapping []domain.ColumnMapping `json:"suggested_mapping"`
}

// newParseCmd works offline: it needs neither database nor config.
func newParseCmd() *cobra.Command {
	var file string
	var mappingOnly bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Show headers, sample rows and the suggested column mapping of a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := readSheet(file)
			if err != nil {
				return err
			}
			mapping := datanorm.SuggestMapping(sheet.Headers)
			if mappingOnly {
				return writeJSON(mapping)
			}
			return writeJSON(parseOutput{
				Headers:          sheet.Headers,
				SampleRows:       sheet.Sample(datanorm.SampleSize),
				TotalRows:        sheet.TotalRows(),
				SuggestedMapping: mapping,
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV or XLSX file (required)")
	cmd.Flags().BoolVar(&mappingOnly, "mapping-only", false, "Print only the suggested mapping, ready for --mapping")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
