package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/enviro-impact/internal/reference"
	"github.com/sells-group/enviro-impact/internal/report"
)

var listJSON bool

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List supported regions",
	RunE: func(cmd *cobra.Command, args []string) error {
		static, err := reference.LoadStatic(cfg.Data.StaticConfigPath)
		if err != nil {
			return err
		}
		return writeList(cmd.OutOrStdout(), "regions", static.Regions(), func(name string) string {
			rc, _ := static.Region(name)
			return fmt.Sprintf("%-14s %s", name, rc.PowerGridRegion)
		})
	},
}

var facilityTypesCmd = &cobra.Command{
	Use:   "facility-types",
	Short: "List supported facility types",
	RunE: func(cmd *cobra.Command, args []string) error {
		static, err := reference.LoadStatic(cfg.Data.StaticConfigPath)
		if err != nil {
			return err
		}
		return writeList(cmd.OutOrStdout(), "facility_types", static.FacilityTypes(), func(name string) string {
			return fmt.Sprintf("%-16s %s", name, report.FacilityName(name))
		})
	},
}

// writeList prints names one per line, or as {"<key>": [...]} with --json.
func writeList(w io.Writer, key string, names []string, line func(string) string) error {
	if listJSON {
		return report.WriteJSON(w, map[string][]string{key: names})
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(w, line(n)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{regionsCmd, facilityTypesCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
		rootCmd.AddCommand(c)
	}
}
