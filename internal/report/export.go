package report

import (
	"errors"
	"io"
	"math"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enviro-impact/internal/batch"
	"github.com/sells-group/enviro-impact/internal/model"
)

// SheetName is the worksheet batch results are written to.
const SheetName = "estimates"

// ExportColumns is the header row of a batch export.
var ExportColumns = []string{
	"line", "region", "facility_type", "size", "usage_pattern",
	"estimated_kwh", "estimated_co2_kg", "estimated_cost_nok",
	"power_grid_region", "industry_class", "price_per_kwh", "price_source",
	"emission_factor_used", "emission_factor_timestamp",
	"target_kwh", "percent_above_target_kwh", "error",
}

// BatchRecord is the JSON form of one batch outcome.
type BatchRecord struct {
	Line    int           `json:"line"`
	Request model.Request `json:"request"`
	Result  *model.Result `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
	Field   string        `json:"field,omitempty"`
	Value   string        `json:"value,omitempty"`
}

// BatchRecords converts outcomes to their JSON form.
func BatchRecords(outcomes []batch.Outcome) []BatchRecord {
	out := make([]BatchRecord, len(outcomes))
	for i, o := range outcomes {
		out[i] = BatchRecord{Line: o.Line, Request: finiteRequest(o.Request), Result: o.Result}
		if o.Err != nil {
			out[i].Error = o.Err.Error()
			var ie *model.InputError
			if errors.As(o.Err, &ie) {
				out[i].Field = ie.Field
				out[i].Value = ie.Value
			}
		}
	}
	return out
}

// finiteRequest drops custom values JSON cannot encode. The rejected text is
// carried by the record's value field instead.
func finiteRequest(req model.Request) model.Request {
	keep := func(v *float64) *float64 {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			return nil
		}
		return v
	}
	req.CustomKWh = keep(req.CustomKWh)
	req.CustomEmissionFactor = keep(req.CustomEmissionFactor)
	req.CustomPricePerKWh = keep(req.CustomPricePerKWh)
	return req
}

// WriteBatchJSON writes outcomes as an indented JSON array.
func WriteBatchJSON(w io.Writer, outcomes []batch.Outcome) error {
	return WriteJSON(w, BatchRecords(outcomes))
}

// WriteBatchXLSX saves outcomes to an XLSX workbook at path.
func WriteBatchXLSX(path string, outcomes []batch.Outcome) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range ExportColumns {
		header.AddCell().SetString(col)
	}

	for _, o := range outcomes {
		row := sheet.AddRow()
		row.AddCell().SetInt(o.Line)
		row.AddCell().SetString(o.Request.Region)
		row.AddCell().SetString(o.Request.FacilityType)
		row.AddCell().SetString(string(o.Request.Size))
		row.AddCell().SetString(string(o.Request.UsagePattern.OrDefault()))

		if o.Err != nil {
			for range len(ExportColumns) - 6 {
				row.AddCell()
			}
			row.AddCell().SetString(o.Err.Error())
			continue
		}

		r, md := o.Result, o.Result.Metadata
		row.AddCell().SetFloat(r.EstimatedKWh)
		row.AddCell().SetFloat(r.EstimatedCO2Kg)
		row.AddCell().SetFloat(r.EstimatedCostNOK)
		row.AddCell().SetString(md.PowerGridRegion)
		row.AddCell().SetString(md.IndustryClass)
		row.AddCell().SetFloat(md.PricePerKWh)
		row.AddCell().SetString(string(md.PriceSource))
		row.AddCell().SetFloat(md.EmissionFactorUsed)
		ts := row.AddCell()
		if md.EmissionFactorTimestamp != nil {
			ts.SetDateTime(*md.EmissionFactorTimestamp)
		}
		target, pct := row.AddCell(), row.AddCell()
		if bp := md.BestPracticeTarget; bp != nil {
			target.SetFloat(bp.TargetKWh)
			if bp.PercentAboveTargetKWh != nil {
				pct.SetFloat(*bp.PercentAboveTargetKWh)
			}
		}
		row.AddCell() // error
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save xlsx")
	}
	return nil
}
