// Package requestparse extracts line items from customer quotation-request
// workbooks. Request sheets are free-form: the item table can start on any
// row, so the parser locates it by its header labels instead of assuming a
// fixed layout.
package requestparse

import (
	"io"

	"github.com/xuri/excelize/v2"

	"quotegen/internal/common/config"
	"quotegen/internal/common/errors"
	"quotegen/internal/common/logger"
	"quotegen/internal/text"
)

// Item is one parsed request line.
type Item struct {
	Name        string   `json:"name"`
	Spec        string   `json:"spec,omitempty"`
	Maker       string   `json:"maker,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	SourceSheet string   `json:"sourceSheet"`
}

// columns holds the resolved zero-based column index per role. Name is the
// only mandatory column; the rest may be absent from a given sheet.
type columns struct {
	name, spec, maker, unit, quantity int
}

type Parser struct {
	nameLabels     map[string]bool
	specLabels     map[string]bool
	makerLabels    map[string]bool
	unitLabels     map[string]bool
	quantityLabels map[string]bool
	log            logger.Logger
}

func New(cfg config.ParserConfig, log logger.Logger) *Parser {
	return &Parser{
		nameLabels:     labelSet(cfg.NameLabels),
		specLabels:     labelSet(cfg.SpecLabels),
		makerLabels:    labelSet(cfg.MakerLabels),
		unitLabels:     labelSet(cfg.UnitLabels),
		quantityLabels: labelSet(cfg.QuantityLabels),
		log:            log,
	}
}

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[text.Normalize(l)] = true
	}
	return set
}

// Parse reads a request workbook from disk.
func (p *Parser) Parse(path string) ([]Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewRequestParseFailedError(path, err)
	}
	defer f.Close()
	return p.parseWorkbook(f, path)
}

// ParseReader reads a request workbook from a stream, e.g. an upload. The
// name is used only in error details.
func (p *Parser) ParseReader(r io.Reader, name string) ([]Item, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewRequestParseFailedError(name, err)
	}
	defer f.Close()
	return p.parseWorkbook(f, name)
}

// parseWorkbook collects items from every sheet that carries an item table.
// A workbook with no recognizable header on any sheet fails.
func (p *Parser) parseWorkbook(f *excelize.File, name string) ([]Item, error) {
	var items []Item
	headerFound := false

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		headerRow, cols, ok := p.findHeader(rows)
		if !ok {
			continue
		}
		headerFound = true
		items = append(items, p.readItems(rows, headerRow, cols, sheet)...)
	}

	if !headerFound {
		return nil, errors.NewRequestParseFailedError(name, errHeaderNotFound)
	}

	p.log.Info("Parsed request workbook", map[string]interface{}{
		"source": name,
		"items":  len(items),
	})
	return items, nil
}

var errHeaderNotFound = headerError("no header row with an item-name column found")

type headerError string

func (e headerError) Error() string { return string(e) }

// findHeader scans for the first row that contains a name label. Remaining
// roles are resolved from the same row when present.
func (p *Parser) findHeader(rows [][]string) (int, columns, bool) {
	for i, row := range rows {
		cols := columns{name: -1, spec: -1, maker: -1, unit: -1, quantity: -1}
		for j, cell := range row {
			label := text.Normalize(cell)
			switch {
			case p.nameLabels[label] && cols.name < 0:
				cols.name = j
			case p.specLabels[label] && cols.spec < 0:
				cols.spec = j
			case p.makerLabels[label] && cols.maker < 0:
				cols.maker = j
			case p.unitLabels[label] && cols.unit < 0:
				cols.unit = j
			case p.quantityLabels[label] && cols.quantity < 0:
				cols.quantity = j
			}
		}
		if cols.name >= 0 {
			return i, cols, true
		}
	}
	return 0, columns{}, false
}

// readItems walks the rows below the header. Two consecutive rows without an
// item name end the table; single blank rows inside the table are skipped.
func (p *Parser) readItems(rows [][]string, headerRow int, cols columns, sheet string) []Item {
	var items []Item
	emptyStreak := 0

	for _, row := range rows[headerRow+1:] {
		name := text.NormalizeValue(cellAt(row, cols.name))
		if name == "" {
			emptyStreak++
			if emptyStreak >= 2 {
				break
			}
			continue
		}
		emptyStreak = 0

		item := Item{
			Name:        name,
			Spec:        text.NormalizeValue(cellAt(row, cols.spec)),
			Maker:       text.NormalizeValue(cellAt(row, cols.maker)),
			Unit:        text.NormalizeValue(cellAt(row, cols.unit)),
			SourceSheet: sheet,
		}
		if qty, ok := text.ParseNumber(cellAt(row, cols.quantity)); ok {
			item.Quantity = &qty
		}
		items = append(items, item)
	}
	return items
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
