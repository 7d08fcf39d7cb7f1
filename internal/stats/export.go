package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// workbook writes report sections as one sheet each
type workbook struct {
	file   *excelize.File
	sheets int
	bold   int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	return &workbook{file: f, bold: bold}, nil
}

// sheet adds a sheet with a bold header row followed by rows
func (b *workbook) sheet(name string, header []interface{}, rows [][]interface{}) error {
	if b.sheets == 0 {
		if err := b.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := b.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	b.sheets++

	if err := b.file.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if err := b.file.SetRowStyle(name, 1, 1, b.bold); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := b.file.SetSheetRow(name, cell, &rows[i]); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return b.file.SetColWidth(name, "A", last, 18)
}

// WriteWorkbook renders an *AgencyReport or *AdminReport as an XLSX workbook
func WriteWorkbook(w io.Writer, report interface{}) error {
	b, err := newWorkbook()
	if err != nil {
		return err
	}
	defer b.file.Close()

	switch r := report.(type) {
	case *AgencyReport:
		err = b.writeAgency(r)
	case *AdminReport:
		err = b.writeAdmin(r)
	default:
		return fmt.Errorf("unsupported report type %T", report)
	}
	if err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}

	return b.file.Write(w)
}

func (b *workbook) writeAgency(r *AgencyReport) error {
	rows := append([][]interface{}{
		{"Agency", r.AgencyID.String()},
	}, summaryRows(r.Range, r.GeneratedAt, r.Summary)...)
	if err := b.sheet("Summary", []interface{}{"Metric", "Value"}, rows); err != nil {
		return err
	}
	return b.sections(r.StatusBreakdown, r.MonthlyRevenue, r.WeeklyTrend, r.ViewsOverTime,
		r.RevenueByModel, r.OccupancyByModel, r.TopModels, r.CancellationsByPaymentStatus)
}

func (b *workbook) writeAdmin(r *AdminReport) error {
	rows := append(summaryRows(r.Range, r.GeneratedAt, r.Summary.Summary),
		[]interface{}{"Active agencies", r.Summary.ActiveAgencies},
		[]interface{}{"Current year revenue", r.Summary.CurrentYearRevenue},
		[]interface{}{"Previous year revenue", r.Summary.PreviousYearRevenue},
		[]interface{}{"Conversion rate", r.Summary.ConversionRate},
	)
	if err := b.sheet("Summary", []interface{}{"Metric", "Value"}, rows); err != nil {
		return err
	}
	if err := b.sections(r.RevenueByStatus, r.MonthlyRevenue, r.WeeklyTrend, r.ViewsOverTime,
		r.RevenueByModel, r.OccupancyByModel, r.TopModels, r.CancellationsByPaymentStatus); err != nil {
		return err
	}

	agencies := make([][]interface{}, 0, len(r.AverageDurationByAgency))
	for _, a := range r.AverageDurationByAgency {
		agencies = append(agencies, []interface{}{a.AgencyID.String(), a.AgencyName, a.AverageDuration, a.Bookings})
	}
	return b.sheet("Agencies", []interface{}{"Agency ID", "Agency", "Average duration (days)", "Bookings"}, agencies)
}

func summaryRows(rng DateRange, generatedAt time.Time, s Summary) [][]interface{} {
	return [][]interface{}{
		{"Start", rng.Start.UTC().Format(time.RFC3339)},
		{"End", rng.End.UTC().Format(time.RFC3339)},
		{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
		{"Total revenue", s.TotalRevenue},
		{"Total bookings", s.TotalBookings},
		{"Accepted bookings", s.AcceptedBookings},
		{"Cancelled bookings", s.CancelledBookings},
		{"Acceptance rate", s.AcceptanceRate},
		{"Cancellation rate", s.CancellationRate},
		{"Average revenue per booking", s.AverageRevenuePerBooking},
		{"Average duration (days)", s.AverageDuration},
		{"Occupancy rate", s.OccupancyRate},
		{"Rebooking rate", s.RebookingRate},
		{"Average lead time (days)", s.AverageLeadTime},
	}
}

func (b *workbook) sections(
	statuses []StatusCount,
	monthly []PeriodRevenue,
	weekly []WeeklyRevenue,
	views []ViewsPoint,
	revenue []ModelRevenue,
	occupancy []ModelOccupancy,
	top []TopModel,
	cancellations PaymentCancellations,
) error {
	rows := make([][]interface{}, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []interface{}{string(s.Status), s.Count, s.TotalPrice})
	}
	if err := b.sheet("Status", []interface{}{"Status", "Bookings", "Total price"}, rows); err != nil {
		return err
	}

	rows = make([][]interface{}, 0, len(monthly))
	for _, m := range monthly {
		rows = append(rows, []interface{}{m.Period, m.Revenue, m.Bookings})
	}
	if err := b.sheet("Monthly", []interface{}{"Month", "Revenue", "Bookings"}, rows); err != nil {
		return err
	}

	rows = make([][]interface{}, 0, len(weekly))
	for _, wk := range weekly {
		rows = append(rows, []interface{}{wk.Week, wk.Revenue, wk.Bookings})
	}
	if err := b.sheet("Weekly", []interface{}{"Week", "Revenue", "Bookings"}, rows); err != nil {
		return err
	}

	rows = make([][]interface{}, 0, len(views))
	for _, v := range views {
		rows = append(rows, []interface{}{v.Date, v.Organic, v.Paid, v.Total})
	}
	if err := b.sheet("Views", []interface{}{"Date", "Organic", "Paid", "Total"}, rows); err != nil {
		return err
	}

	occ := make(map[string]ModelOccupancy, len(occupancy))
	for _, o := range occupancy {
		occ[o.ModelID.String()] = o
	}
	rows = make([][]interface{}, 0, len(revenue)+len(occupancy))
	seen := make(map[string]bool, len(revenue))
	for _, m := range revenue {
		id := m.ModelID.String()
		seen[id] = true
		o, ok := occ[id]
		row := []interface{}{id, m.Model, m.AgencyName, m.Revenue, m.Bookings, nil, nil}
		if ok {
			row[5], row[6] = o.BookedDays, o.OccupancyRate
		}
		rows = append(rows, row)
	}
	for _, o := range occupancy {
		if id := o.ModelID.String(); !seen[id] {
			rows = append(rows, []interface{}{id, o.Model, o.AgencyName, nil, nil, o.BookedDays, o.OccupancyRate})
		}
	}
	header := []interface{}{"Model ID", "Model", "Agency", "Revenue", "Bookings", "Booked days", "Occupancy rate"}
	if err := b.sheet("Models", header, rows); err != nil {
		return err
	}

	rows = make([][]interface{}, 0, len(top))
	for i, t := range top {
		rows = append(rows, []interface{}{i + 1, t.Model, t.AgencyName, t.Bookings})
	}
	if err := b.sheet("Top Models", []interface{}{"Rank", "Model", "Agency", "Bookings"}, rows); err != nil {
		return err
	}

	return b.sheet("Cancellations", []interface{}{"Payment status", "Cancelled bookings"}, [][]interface{}{
		{"deposit", cancellations.Deposit},
		{"paid", cancellations.Paid},
	})
}
