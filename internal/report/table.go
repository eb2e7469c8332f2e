// Package report renders estimates for the terminal and for export.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/enviro-impact/internal/batch"
	"github.com/sells-group/enviro-impact/internal/model"
)

var (
	printer = message.NewPrinter(language.English)
	title   = cases.Title(language.English)
)

// FacilityName turns a facility type key such as "office_building" into a
// display name.
func FacilityName(facilityType string) string {
	return title.String(strings.ReplaceAll(facilityType, "_", " "))
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteEstimate prints one estimate as an aligned key/value table.
func WriteEstimate(w io.Writer, req model.Request, res *model.Result) error {
	md := res.Metadata
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	line := func(k, v string) { _, _ = fmt.Fprintf(tw, "%s\t%s\n", k, v) }

	line("Facility", fmt.Sprintf("%s (%s)", FacilityName(req.FacilityType), req.Size))
	line("Region", fmt.Sprintf("%s (%s)", md.Region, md.PowerGridRegion))
	line("Industry class", printer.Sprintf("%s (x%.2f)", md.IndustryClass, md.IndustryModifier))
	if md.EstimatedBaselineKWh != nil && md.SizeMultiplier != nil {
		line("Baseline", printer.Sprintf("%.0f kWh x %.2f", *md.EstimatedBaselineKWh, *md.SizeMultiplier))
	}
	line("Consumption", printer.Sprintf("%.2f kWh/year", res.EstimatedKWh))
	line("Emissions", printer.Sprintf("%.2f kg CO2/year", res.EstimatedCO2Kg))
	line("Cost", printer.Sprintf("%.2f NOK/year", res.EstimatedCostNOK))
	line("Price", printer.Sprintf("%.3f NOK/kWh (%s)", md.PricePerKWh, md.PriceSource))

	factor := printer.Sprintf("%.4f kg/kWh", md.EmissionFactorUsed)
	if md.EmissionFactorTimestamp != nil {
		factor += " at " + md.EmissionFactorTimestamp.Format(time.RFC3339)
	}
	line("Emission factor", factor)

	if bp := md.BestPracticeTarget; bp != nil {
		line("Target consumption", printer.Sprintf("%.0f kWh (%s)", bp.TargetKWh, percent(bp.PercentAboveTargetKWh)))
		line("Target emissions", printer.Sprintf("%.2f kg (%s)", bp.TargetCO2, percent(bp.PercentAboveTargetCO2)))
		line("Target cost", printer.Sprintf("%.2f NOK (%s)", bp.TargetCost, percent(bp.PercentAboveTargetCost)))
	} else {
		line("Best practice", "no benchmark")
	}

	return tw.Flush()
}

// WriteBatchTable prints one line per batch outcome followed by a summary.
func WriteBatchTable(w io.Writer, outcomes []batch.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "LINE\tREGION\tFACILITY\tSIZE\tKWH\tCO2 KG\tCOST NOK\tPRICE\tERROR")
	_, _ = fmt.Fprintln(tw, "----\t------\t--------\t----\t---\t------\t--------\t-----\t-----")

	for _, o := range outcomes {
		if o.Err != nil {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\t\t\t\t%s\n",
				o.Line, o.Request.Region, o.Request.FacilityType, o.Request.Size, truncate(o.Err.Error(), 60))
			continue
		}
		r := o.Result
		_, _ = printer.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%s\t\n",
			o.Line, o.Request.Region, o.Request.FacilityType, o.Request.Size,
			r.EstimatedKWh, r.EstimatedCO2Kg, r.EstimatedCostNOK, r.Metadata.PriceSource)
	}

	s := batch.Summarize(outcomes)
	_, _ = fmt.Fprintf(tw, "\n%d rows, %d estimated, %d failed\n", s.Total, s.Succeeded, s.Failed)
	return tw.Flush()
}

func percent(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return printer.Sprintf("%+.2f%%", *p)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
