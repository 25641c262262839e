package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/shipment-importer/internal/datanorm"
	"github.com/ignite/shipment-importer/internal/domain"
)

// requestFlags are shared by preview and commit.
type requestFlags struct {
	file        string
	mappingPath string
	sender      string
	defaults    map[string]string
	agencies    map[string]string
	noDedupe    bool
	force       bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "CSV or XLSX file (required)")
	cmd.Flags().StringVar(&f.mappingPath, "mapping", "", "JSON file with the column mapping (default: suggested mapping)")
	cmd.Flags().StringVar(&f.sender, "sender", "", "Sender organization id")
	cmd.Flags().StringToStringVar(&f.defaults, "default", nil, "Default field values, e.g. --default service_type=EXPRESS")
	cmd.Flags().StringToStringVar(&f.agencies, "agency", nil, "Agency overrides, raw name=agency id (empty id means no agency)")
	cmd.Flags().BoolVar(&f.noDedupe, "no-dedupe", false, "Skip duplicate detection")
	cmd.Flags().BoolVar(&f.force, "force", false, "Insert rows even when they look like duplicates")
	_ = cmd.MarkFlagRequired("file")
}

// build parses the file and assembles the import request.
func (f *requestFlags) build() (domain.ImportRequest, error) {
	sheet, err := readSheet(f.file)
	if err != nil {
		return domain.ImportRequest{}, err
	}

	mapping := datanorm.SuggestMapping(sheet.Headers)
	if f.mappingPath != "" {
		data, err := os.ReadFile(f.mappingPath)
		if err != nil {
			return domain.ImportRequest{}, fmt.Errorf("read mapping: %w", err)
		}
		mapping = nil
		if err := json.Unmarshal(data, &mapping); err != nil {
			return domain.ImportRequest{}, fmt.Errorf("decode mapping: %w", err)
		}
	}

	defaults := make(map[string]string, len(f.defaults)+1)
	for k, v := range f.defaults {
		defaults[k] = v
	}
	if f.sender != "" {
		defaults[datanorm.SenderOrgKey] = f.sender
	}

	var overrides map[string]*string
	if len(f.agencies) > 0 {
		overrides = make(map[string]*string, len(f.agencies))
		for name, id := range f.agencies {
			if id == "" {
				overrides[name] = nil
				continue
			}
			id := id
			overrides[name] = &id
		}
	}

	return domain.ImportRequest{
		Rows:              sheet.Rows,
		Mapping:           mapping,
		Defaults:          defaults,
		EntityResolutions: domain.EntityResolutions{Agencies: overrides},
		DedupeCheck:       !f.noDedupe,
		Force:             f.force,
	}, nil
}

func readSheet(path string) (*datanorm.Sheet, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return datanorm.Parse(fh, path)
}
