package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
)

// Exporter writes report results under a directory.
type Exporter struct {
	dir string
	now func() time.Time
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir, now: time.Now}
}

// FileName is report_<type>_<ISO timestamp without colons>.<ext>.
func FileName(typ domain.ReportType, format domain.ExportFormat, at time.Time) string {
	stamp := strings.ReplaceAll(at.UTC().Format("2006-01-02T15:04:05.000Z"), ":", "")
	return fmt.Sprintf("report_%s_%s.%s", typ, stamp, format.Extension())
}

// Export renders res in format and returns the written file path.
func (e *Exporter) Export(res *Result, format domain.ExportFormat) (string, error) {
	if !format.Valid() {
		return "", validate.Field("formato", "must be one of: csv, excel, pdf")
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}
	path := filepath.Join(e.dir, FileName(res.Type, format, e.now()))

	var err error
	switch format {
	case domain.FormatCSV:
		err = writeCSV(path, res)
	case domain.FormatExcel:
		err = writeExcel(path, res)
	case domain.FormatPDF:
		err = writePDF(path, res)
	}
	if err != nil {
		return "", fmt.Errorf("export %s report as %s: %w", res.Type, format, err)
	}
	return path, nil
}

// table is a header plus rows of cells.
type table struct {
	header []string
	rows   [][]string
}

func advisorTable(res *Result) table {
	t := table{header: []string{"asesorId", "nombre", "prospectos", "activos", "inscritos", "tasaConversion", "ingresos", "comunicaciones", "llamadas"}}
	for _, a := range res.Advisors {
		t.rows = append(t.rows, []string{
			a.AdvisorID, a.Name, itoa(a.Prospects), itoa(a.Active), itoa(a.Enrolled),
			ftoa(a.ConversionRate), a.Revenue.StringFixed(2), itoa(a.Communications), itoa(a.Calls),
		})
	}
	return t
}

func campaignTable(res *Result) table {
	t := table{header: []string{"campanaId", "nombre", "canal", "estado", "presupuesto", "gastado", "leads", "inscritos", "tasaConversion", "ingresos", "roi", "costoPorLead", "costoPorInscripcion"}}
	for _, c := range res.Campaigns {
		t.rows = append(t.rows, []string{
			c.CampaignID, c.Name, c.Channel, c.State, c.Budget.StringFixed(2), c.Spent.StringFixed(2),
			itoa(c.Leads), itoa(c.Enrolled), ftoa(c.ConversionRate), c.Revenue.StringFixed(2),
			ftoa(c.ROI), c.CostPerLead.StringFixed(2), c.CostPerEnrollment.StringFixed(2),
		})
	}
	return t
}

func funnelTable(res *Result) table {
	t := table{header: []string{"estado", "alcanzados", "actuales", "tasa", "tasaPaso"}}
	for _, s := range res.Funnel {
		t.rows = append(t.rows, []string{s.Status, itoa(s.Reached), itoa(s.Current), ftoa(s.Rate), ftoa(s.StepRate)})
	}
	return t
}

// flatten dumps every scalar of the result as clave/valor rows.
func flatten(res *Result) table {
	t := table{header: []string{"clave", "valor"}}
	add := func(k, v string) { t.rows = append(t.rows, []string{k, v}) }
	add("tipo", string(res.Type))
	add("periodo.desde", res.Window.From.Format(time.RFC3339))
	add("periodo.hasta", res.Window.To.Format(time.RFC3339))
	add("generadoEn", res.GeneratedAt.Format(time.RFC3339))
	for _, f := range res.Summary {
		add("resumen."+f.Key, f.Value)
	}
	for _, k := range sortedKeys(res.ByStatus) {
		add("porEstado."+k, itoa(res.ByStatus[k]))
	}
	for _, k := range sortedKeys(res.ByOrigin) {
		add("porOrigen."+k, itoa(res.ByOrigin[k]))
	}
	for _, c := range res.Channels {
		add("canales."+c.Channel+".leads", itoa(c.Leads))
		add("canales."+c.Channel+".inscritos", itoa(c.Enrolled))
		add("canales."+c.Channel+".roi", ftoa(c.ROI))
	}
	for _, s := range res.Funnel {
		add("embudo."+s.Status+".alcanzados", itoa(s.Reached))
		add("embudo."+s.Status+".tasa", ftoa(s.Rate))
	}
	for _, b := range res.Trend {
		add("tendencia."+b.Period, itoa(b.Prospects))
	}
	return t
}

// csvTable is the dominant array when the report has one, the flattened
// dump otherwise.
func csvTable(res *Result) table {
	switch res.Type {
	case domain.ReportAdvisors:
		return advisorTable(res)
	case domain.ReportCampaigns:
		return campaignTable(res)
	}
	return flatten(res)
}

// sheetTable picks the Excel columns per report type.
func sheetTable(res *Result) table {
	switch res.Type {
	case domain.ReportAdvisors:
		return advisorTable(res)
	case domain.ReportCampaigns:
		return campaignTable(res)
	case domain.ReportConversions:
		return funnelTable(res)
	}
	t := table{header: []string{"indicador", "valor"}}
	for _, f := range res.Summary {
		t.rows = append(t.rows, []string{f.Label, f.Value})
	}
	return t
}

func writeCSV(path string, res *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	t := csvTable(res)
	w := csv.NewWriter(f)
	if err := w.Write(t.header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(t.rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const sheetName = "Reporte"

func writeExcel(path string, res *Result) error {
	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	bold, err := x.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	t := sheetTable(res)
	widths := make([]int, len(t.header))
	all := append([][]string{t.header}, t.rows...)
	for r, row := range all {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := x.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(v))
		}
	}
	last, err := excelize.CoordinatesToCellName(len(t.header), 1)
	if err != nil {
		return err
	}
	if err := x.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return err
	}
	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := x.SetColWidth(sheetName, col, col, float64(w+2)); err != nil {
			return err
		}
	}
	return x.SaveAs(path)
}

func writePDF(path string, res *Result) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(res.Title))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr("Periodo: "+res.Window.Label()))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr("Generado: "+res.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	line := func(s string) {
		pdf.MultiCell(0, 6, tr(s), "", "L", false)
	}
	heading := func(s string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, tr(s))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
	}

	heading("Resumen")
	for _, f := range res.Summary {
		line(f.Label + ": " + f.Value)
	}

	switch res.Type {
	case domain.ReportExecutive:
		heading("Prospectos por estado")
		for _, k := range sortedKeys(res.ByStatus) {
			line(fmt.Sprintf("%s: %d", k, res.ByStatus[k]))
		}
		heading("Canales")
		for _, c := range res.Channels {
			line(fmt.Sprintf("%s: %d leads, %d inscritos, ROI %.2f%%", c.Channel, c.Leads, c.Enrolled, c.ROI))
		}
	case domain.ReportAdvisors:
		heading("Asesores")
		for _, a := range res.Advisors {
			line(fmt.Sprintf("%s: %d prospectos, %d inscritos (%.2f%%), ingresos %s, %d comunicaciones",
				a.Name, a.Prospects, a.Enrolled, a.ConversionRate, a.Revenue.StringFixed(2), a.Communications))
		}
	case domain.ReportCampaigns:
		heading("Campañas")
		for _, c := range res.Campaigns {
			line(fmt.Sprintf("%s (%s, %s): gastado %s de %s, %d leads, %d inscritos, ROI %.2f%%, CPL %s",
				c.Name, c.Channel, c.State, c.Spent.StringFixed(2), c.Budget.StringFixed(2),
				c.Leads, c.Enrolled, c.ROI, c.CostPerLead.StringFixed(2)))
		}
	case domain.ReportConversions:
		heading("Embudo")
		for _, s := range res.Funnel {
			line(fmt.Sprintf("%s: %d alcanzados (%.2f%%), paso %.2f%%", s.Status, s.Reached, s.Rate, s.StepRate))
		}
	}

	return pdf.OutputFileAndClose(path)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }

func ftoa(f float64) string { return fmt.Sprintf("%.2f", f) }
