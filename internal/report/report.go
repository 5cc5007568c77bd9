// Package report builds the JSON analysis report written next to the
// processed tables. It reads sales-data summaries only.
package report

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/Odelialan/Sales-Data-Analysis/internal/summary"
)

// FileTopProducts caps the products listed per file.
const FileTopProducts = 5

type Report struct {
	GeneratedAt string    `json:"generated_at"`
	RunID       string    `json:"run_id"`
	Overview    Overview  `json:"overview"`
	Files       []File    `json:"files"`
	Insights    *Insights `json:"insights,omitempty"`
}

type Overview struct {
	Files        int     `json:"files"`
	SalesFiles   int     `json:"sales_files"`
	TotalRecords int     `json:"total_records"`
	TotalSales   float64 `json:"total_sales"`
	Regions      int     `json:"regions"`
	Products     int     `json:"products"`
}

type File struct {
	FileName    string              `json:"file_name"`
	Rows        int                 `json:"rows"`
	Columns     int                 `json:"columns"`
	TotalSales  float64             `json:"total_sales"`
	AvgSales    float64             `json:"avg_sales"`
	DateRange   *summary.DateRange  `json:"date_range,omitempty"`
	Regions     []summary.GroupStat `json:"regions,omitempty"`
	TopProducts []summary.GroupStat `json:"top_products,omitempty"`
}

// Insights compares regions across all sales files. Fields stay zero when
// no region has orders.
type Insights struct {
	BestRegion         string  `json:"best_region"`
	BestRegionSales    float64 `json:"best_region_sales"`
	BestRegionSharePct float64 `json:"best_region_share_pct"`
	MostOrdersRegion   string  `json:"most_orders_region"`
	MostOrders         int     `json:"most_orders"`
	BestAvgRegion      string  `json:"best_avg_region"`
	BestAvgOrder       float64 `json:"best_avg_order"`
}

// Build returns the report for summaries, or ok=false when none of them is
// sales data.
func Build(summaries []summary.FileSummary, runID string, at time.Time) (Report, bool) {
	r := Report{
		GeneratedAt: at.Format("2006-01-02 15:04:05"),
		RunID:       runID,
	}
	r.Overview.Files = len(summaries)

	regions := map[string]struct{}{}
	products := map[string]struct{}{}
	for _, s := range summaries {
		if !s.IsSalesData {
			continue
		}
		r.Overview.SalesFiles++
		r.Overview.TotalRecords += s.TotalRows

		f := File{
			FileName:  s.FileName,
			Rows:      s.TotalRows,
			Columns:   s.TotalColumns,
			DateRange: s.DateRange,
			Regions:   s.Regions,
		}
		if s.Sales != nil {
			f.TotalSales = s.Sales.Total
			f.AvgSales = s.Sales.Mean
		}
		r.Overview.TotalSales += f.TotalSales
		f.TopProducts = s.TopProducts
		if len(f.TopProducts) > FileTopProducts {
			f.TopProducts = f.TopProducts[:FileTopProducts]
		}
		for _, g := range s.Regions {
			regions[g.Name] = struct{}{}
		}
		for _, g := range s.TopProducts {
			products[g.Name] = struct{}{}
		}
		r.Files = append(r.Files, f)
	}
	if r.Overview.SalesFiles == 0 {
		return Report{}, false
	}
	r.Overview.TotalSales = round2(r.Overview.TotalSales)
	r.Overview.Regions = len(regions)
	r.Overview.Products = len(products)
	r.Insights = insights(summaries)
	return r, true
}

type regionTotal struct {
	name   string
	sales  float64
	orders int
}

func insights(summaries []summary.FileSummary) *Insights {
	var order []*regionTotal
	byName := map[string]*regionTotal{}
	for _, s := range summaries {
		if !s.IsSalesData {
			continue
		}
		for _, g := range s.Regions {
			rt, ok := byName[g.Name]
			if !ok {
				rt = &regionTotal{name: g.Name}
				byName[g.Name] = rt
				order = append(order, rt)
			}
			rt.sales += g.Sum
			rt.orders += g.Count
		}
	}
	if len(order) == 0 {
		return nil
	}

	var in Insights
	var best, most, avg *regionTotal
	var total, bestAvg float64
	for _, rt := range order {
		total += rt.sales
		if best == nil || rt.sales > best.sales {
			best = rt
		}
		if most == nil || rt.orders > most.orders {
			most = rt
		}
		if rt.orders > 0 {
			a := rt.sales / float64(rt.orders)
			if avg == nil || a > bestAvg {
				avg, bestAvg = rt, a
			}
		}
	}
	in.BestRegion = best.name
	in.BestRegionSales = round2(best.sales)
	if total != 0 {
		in.BestRegionSharePct = math.Round(best.sales/total*1000) / 10
	}
	in.MostOrdersRegion = most.name
	in.MostOrders = most.orders
	if avg != nil {
		in.BestAvgRegion = avg.name
		in.BestAvgOrder = round2(bestAvg)
	}
	return &in
}

// Write encodes r as indented JSON.
func Write(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
