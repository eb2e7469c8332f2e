package main

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/enviro-impact/internal/model"
	"github.com/sells-group/enviro-impact/internal/report"
)

var estimateFlags struct {
	region               string
	facilityType         string
	size                 string
	customKWh            float64
	usagePattern         string
	customEmissionFactor float64
	customPrice          float64
	format               string
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate consumption, emissions and cost for one facility",
	Example: `  enviro-impact estimate --region Oslo --facility-type office_building --size medium
  enviro-impact estimate --region Bergen --facility-type school --size small --custom-kwh 150000 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("estimate"); err != nil {
			return err
		}
		format := strings.ToLower(estimateFlags.format)
		if format != "table" && format != "json" {
			return eris.Errorf("unknown format %q (want table or json)", estimateFlags.format)
		}

		est, err := initEstimator(cfg)
		if err != nil {
			return err
		}

		req := requestFromFlags(cmd.Flags())
		res, err := est.Estimate(cmd.Context(), req)
		if err != nil {
			return err
		}
		return writeEstimate(cmd.OutOrStdout(), format, req, res)
	},
}

// requestFromFlags builds a request; optional values are set only when their
// flag was given.
func requestFromFlags(fs *pflag.FlagSet) model.Request {
	req := model.Request{
		Region:       estimateFlags.region,
		FacilityType: estimateFlags.facilityType,
		Size:         model.Size(strings.ToLower(estimateFlags.size)),
		UsagePattern: model.UsagePattern(strings.ToLower(estimateFlags.usagePattern)),
	}
	if fs.Changed("custom-kwh") {
		v := estimateFlags.customKWh
		req.CustomKWh = &v
	}
	if fs.Changed("custom-emission-factor") {
		v := estimateFlags.customEmissionFactor
		req.CustomEmissionFactor = &v
	}
	if fs.Changed("custom-price") {
		v := estimateFlags.customPrice
		req.CustomPricePerKWh = &v
	}
	return req
}

func writeEstimate(w io.Writer, format string, req model.Request, res *model.Result) error {
	if format == "json" {
		return report.WriteJSON(w, res)
	}
	return report.WriteEstimate(w, req, res)
}

func init() {
	f := estimateCmd.Flags()
	f.StringVar(&estimateFlags.region, "region", "", "region, e.g. Oslo (see: enviro-impact regions)")
	f.StringVar(&estimateFlags.facilityType, "facility-type", "", "facility type, e.g. office_building (see: enviro-impact facility-types)")
	f.StringVar(&estimateFlags.size, "size", "", "facility size: small, medium or large")
	f.Float64Var(&estimateFlags.customKWh, "custom-kwh", 0, "known yearly consumption in kWh, replaces the baseline")
	f.StringVar(&estimateFlags.usagePattern, "usage-pattern", "", "usage pattern: constant, intermittent or peak (default constant)")
	f.Float64Var(&estimateFlags.customEmissionFactor, "custom-emission-factor", 0, "emission factor in kg CO2 per kWh")
	f.Float64Var(&estimateFlags.customPrice, "custom-price", 0, "electricity price in NOK per kWh, used as is")
	f.StringVar(&estimateFlags.format, "format", "table", "output format: table or json")
	_ = estimateCmd.MarkFlagRequired("region")
	_ = estimateCmd.MarkFlagRequired("facility-type")
	_ = estimateCmd.MarkFlagRequired("size")
	rootCmd.AddCommand(estimateCmd)
}
