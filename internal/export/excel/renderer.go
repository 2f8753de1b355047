package excel

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/davidbz/quotekit/internal/domain"
)

// SheetName is the name of the quote worksheet.
const SheetName = "报价清单"

const (
	title       = "阿里云大模型产品报价清单"
	fontFamily  = "微软雅黑"
	headerColor = "4472C4"
	headerRow   = 5
	emptyCell   = "-"
)

//nolint:gochecknoglobals // Static sheet layout
var (
	headers      = []string{"序号", "模型名称", "模式", "Token范围", "输入单价", "输出单价", "折扣", "日估计用量", "预估月费", "备注"}
	columnWidths = []float64{8, 30, 15, 20, 20, 20, 12, 14, 16, 24}
)

// Renderer renders quote documents as xlsx workbooks.
type Renderer struct{}

// NewRenderer creates an xlsx renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Extension returns the file extension of rendered documents.
func (r *Renderer) Extension() string {
	return ".xlsx"
}

// ContentType returns the MIME type of rendered documents.
func (r *Renderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type styles struct {
	title   int
	header  int
	section int
	cell    int
	total   int
	bold    int
}

// Render writes the document into a workbook and returns its bytes.
func (r *Renderer) Render(doc *domain.QuoteDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, err: nil}
	lastCol := colName(len(headers))

	w.merge("A1", lastCol+"1")
	w.set("A1", title)
	w.style("A1", lastCol+"1", st.title)
	w.rowHeight(1, 30)

	w.set("A3", "客户名称：")
	w.set("B3", doc.Header.CustomerName)
	w.set("D3", "报价日期：")
	w.set("E3", doc.Header.QuoteDate)
	w.set("G3", "有效期：")
	w.set("H3", doc.Header.ValidUntil)

	for i, h := range headers {
		w.set(cell(i+1, headerRow), h)
	}
	w.style(cell(1, headerRow), cell(len(headers), headerRow), st.header)
	w.rowHeight(headerRow, 25)

	row := headerRow + 1
	for _, group := range doc.Groups {
		w.merge(cell(1, row), cell(len(headers), row))
		w.set(cell(1, row), fmt.Sprintf("%s %s", group.Category.Icon, group.Category.Name))
		w.style(cell(1, row), cell(len(headers), row), st.section)
		row++

		for _, line := range group.Lines {
			for i, v := range lineValues(line) {
				w.set(cell(i+1, row), v)
			}
			w.style(cell(1, row), cell(len(headers), row), st.cell)
			row++
		}
	}

	w.set(cell(len(headers)-2, row), "合计")
	w.set(cell(len(headers)-1, row), "¥"+doc.TotalMonthly.StringFixed(2))
	w.style(cell(1, row), cell(len(headers), row), st.total)
	row += 3

	w.set(cell(1, row), "报价说明：")
	w.style(cell(1, row), cell(1, row), st.bold)
	for _, note := range notes(doc) {
		row++
		w.set(cell(1, row), note)
	}

	for i, width := range columnWidths {
		col := colName(i + 1)
		w.colWidth(col, width)
	}

	if w.err != nil {
		return nil, fmt.Errorf("failed to write sheet: %w", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func lineValues(line domain.DocumentLine) []interface{} {
	input, output := emptyCell, emptyCell
	switch line.Price.Kind {
	case domain.PriceKindToken:
		input = priceText(line.InputDisplay, line.UnitLabel)
		output = priceText(line.OutputDisplay, line.UnitLabel)
	case domain.PriceKindNonToken:
		input = priceText(line.Price.NonToken, line.UnitLabel)
	case domain.PriceKindNone:
	}

	usage := emptyCell
	if line.DailyUsage != nil {
		usage = decimal.NewFromFloat(*line.DailyUsage).String()
	}
	monthly := emptyCell
	if line.Monthly.Valid {
		monthly = "¥" + line.Monthly.Decimal.StringFixed(2)
	}

	return []interface{}{
		line.Seq,
		line.ModelName,
		orDash(line.Mode),
		orDash(line.TokenTier),
		input,
		output,
		line.DiscountLabel,
		usage,
		monthly,
		line.Remark,
	}
}

func notes(doc *domain.QuoteDocument) []string {
	out := []string{
		"• 以上价格均为人民币（CNY）计价",
		"• Token计费模型按实际调用量结算",
		fmt.Sprintf("• 预估月费按每月%d天、日估计用量 ×（输入单价 + 输出单价）估算，仅供参考", domain.DaysPerMonth),
	}
	if doc.Header.DiscountPercent > 0 {
		out = append(out, "• 本报价单默认折扣: "+domain.DiscountLabel(doc.Header.DiscountPercent))
	}
	return out
}

func priceText(p decimal.NullDecimal, unit string) string {
	if !p.Valid {
		return emptyCell
	}
	return fmt.Sprintf("¥%s/%s", p.Decimal.String(), unit)
}

func orDash(s string) string {
	if s == "" {
		return emptyCell
	}
	return s
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	defs := []*excelize.Style{
		{Font: &excelize.Font{Family: fontFamily, Size: 16, Bold: true}, Alignment: center},
		{
			Font:      &excelize.Font{Family: fontFamily, Size: 11, Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
			Alignment: center,
			Border:    border,
		},
		{
			Font:   &excelize.Font{Family: fontFamily, Size: 11, Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
			Border: border,
		},
		{Font: &excelize.Font{Family: fontFamily, Size: 10}, Border: border},
		{Font: &excelize.Font{Family: fontFamily, Size: 11, Bold: true}, Border: border},
		{Font: &excelize.Font{Family: fontFamily, Bold: true}},
	}

	ids := make([]int, len(defs))
	for i, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return styles{}, fmt.Errorf("failed to create style: %w", err)
		}
		ids[i] = id
	}

	return styles{title: ids[0], header: ids[1], section: ids[2], cell: ids[3], total: ids[4], bold: ids[5]}, nil
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) set(axis string, v interface{}) {
	if w.err == nil {
		w.err = w.f.SetCellValue(SheetName, axis, v)
	}
}

func (w *sheetWriter) merge(from, to string) {
	if w.err == nil {
		w.err = w.f.MergeCell(SheetName, from, to)
	}
}

func (w *sheetWriter) style(from, to string, id int) {
	if w.err == nil {
		w.err = w.f.SetCellStyle(SheetName, from, to, id)
	}
}

func (w *sheetWriter) rowHeight(row int, height float64) {
	if w.err == nil {
		w.err = w.f.SetRowHeight(SheetName, row, height)
	}
}

func (w *sheetWriter) colWidth(col string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetName, col, col, width)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func colName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}
