package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/totegamma/timepulse"
)

const maxSheetRows = 100000

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	// first sheet that has any content
	for _, sheet := range file.GetSheetList() {
		rows, err := file.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("workbook has no data")
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows := workbook.ReadAllCells(maxSheetRows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent of , ; and tab on the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if c := bytes.Count(line, []byte(string(d))); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(header), ":")))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var (
	employeeHeaders = map[string]bool{"employee": true, "employee name": true, "name": true, "worker": true, "consultant": true, "contractor": true}
	clientHeaders   = map[string]bool{"client": true, "client name": true, "customer": true, "project": true, "company": true}
)

type tableLayout struct {
	header      int
	days        map[int]int // column -> day index
	totalCol    int
	employeeCol int
	clientCol   int
}

// headerDay reads a header cell such as "Mon", "Monday 3/11" or "TUE.".
func headerDay(cell string) (int, bool) {
	fields := strings.Fields(cell)
	if len(fields) == 0 {
		return 0, false
	}
	return timepulse.DayIndex(fields[0])
}

func findLayout(rows [][]string) (tableLayout, bool) {
	for i, row := range rows {
		layout := tableLayout{header: i, days: map[int]int{}, totalCol: -1, employeeCol: -1, clientCol: -1}
		for col, cell := range row {
			h := normalizeHeader(cell)
			if idx, ok := headerDay(h); ok {
				if _, dup := layout.days[col]; !dup {
					layout.days[col] = idx
				}
				continue
			}
			switch {
			case strings.Contains(h, "total"):
				layout.totalCol = col
			case employeeHeaders[h]:
				layout.employeeCol = col
			case clientHeaders[h]:
				layout.clientCol = col
			}
		}
		if len(layout.days) >= 3 {
			return layout, true
		}
	}
	return tableLayout{}, false
}

func isTotalRow(row []string) bool {
	for _, cell := range row {
		c := strings.TrimSpace(cell)
		if c == "" {
			continue
		}
		return strings.HasPrefix(strings.ToLower(c), "total")
	}
	return false
}

// parseTable reads a grid with weekday columns. Without such a header the
// rows are handed to the text parser line by line.
func parseTable(rows [][]string) parsed {
	layout, ok := findLayout(rows)
	if !ok {
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
		return parseText(strings.Join(lines, "\n"))
	}

	p := parsed{tabular: true}

	// labels such as "Employee: Jane Doe" above the header
	var above []string
	for _, row := range rows[:layout.header] {
		above = append(above, strings.Join(row, "\t"))
	}
	if len(above) > 0 {
		labels := parseText(strings.Join(above, "\n"))
		p.employee, p.client = labels.employee, labels.client
	}

	var summedTotal float64
	var haveSummed bool
	for _, row := range rows[layout.header+1:] {
		if isTotalRow(row) {
			if v, ok := parseHoursCell(cellValue(row, layout.totalCol)); ok {
				p.total = &v
			}
			continue
		}
		for col, day := range layout.days {
			if h, ok := parseHoursCell(cellValue(row, col)); ok {
				p.add(day, h)
			}
		}
		if v, ok := parseHoursCell(cellValue(row, layout.totalCol)); ok {
			summedTotal += v
			haveSummed = true
		}
		if p.employee == "" {
			p.employee = cleanName(cellValue(row, layout.employeeCol))
		}
		if p.client == "" {
			p.client = cleanName(cellValue(row, layout.clientCol))
		}
	}
	if p.total == nil && haveSummed {
		p.total = &summedTotal
	}
	return p
}
