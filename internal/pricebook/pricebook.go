// Package pricebook indexes unit prices from historical quotation workbooks.
// The quotation folder is the source of truth: the book is rebuilt from disk
// on demand, and when two workbooks price the same item the newer file wins.
package pricebook

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"quotegen/internal/common/config"
	"quotegen/internal/common/logger"
	"quotegen/internal/requestparse"
	"quotegen/internal/text"
)

// Entry is one priced item from a historical quotation.
type Entry struct {
	Name      string    `json:"name"`
	Spec      string    `json:"spec,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	UnitPrice float64   `json:"unitPrice"`
	Source    string    `json:"source"`
	ModTime   time.Time `json:"-"`
}

// Match statuses and methods reported per item.
const (
	StatusMatched = "matched"
	StatusNoPrice = "no-price"

	MethodNameSpec  = "name+spec"
	MethodSpec      = "spec"
	MethodSpecFuzzy = "spec-fuzzy"
	MethodName      = "name"
)

// MatchResult pairs a request item with its price lookup outcome.
type MatchResult struct {
	Item       requestparse.Item `json:"item"`
	Matched    bool              `json:"matched"`
	Status     string            `json:"status"`
	Method     string            `json:"method,omitempty"`
	UnitPrice  float64           `json:"unitPrice,omitempty"`
	Amount     float64           `json:"amount,omitempty"`
	Candidates []Entry           `json:"candidates,omitempty"`
}

// Book is an in-memory price index keyed by normalized item identity.
type Book struct {
	byKey  map[string]Entry
	bySpec map[string][]Entry
	byName map[string][]Entry
}

func itemKey(name, spec string) string {
	return text.Normalize(name) + "\x00" + text.Normalize(spec)
}

// fuzzyKey reduces a spec to its uppercase alphanumerics, so "M8 x 30" and
// "M8X30" compare equal.
func fuzzyKey(spec string) string {
	var b strings.Builder
	for _, r := range spec {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Build scans dir for .xlsx quotation workbooks and indexes every priced row.
// Files are applied oldest first, so a newer quotation overrides an older
// price for the same (name, spec).
func Build(dir string, cfg config.ParserConfig, log logger.Logger) (*Book, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyBook(), nil
		}
		return nil, err
	}

	type sourceFile struct {
		path    string
		modTime time.Time
	}
	var files []sourceFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, sourceFile{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	book := emptyBook()
	scanned := 0
	for _, sf := range files {
		rows, err := readPricedRows(sf.path, cfg)
		if err != nil {
			log.Warn("Skipping unreadable quotation workbook", map[string]interface{}{
				"path":  sf.path,
				"error": err.Error(),
			})
			continue
		}
		scanned++
		for _, entry := range rows {
			entry.Source = sf.path
			entry.ModTime = sf.modTime
			book.add(entry)
		}
	}

	log.Info("Price book built", map[string]interface{}{
		"workbooks": scanned,
		"entries":   len(book.byKey),
	})
	return book, nil
}

func emptyBook() *Book {
	return &Book{
		byKey:  make(map[string]Entry),
		bySpec: make(map[string][]Entry),
		byName: make(map[string][]Entry),
	}
}

func (b *Book) add(entry Entry) {
	key := itemKey(entry.Name, entry.Spec)
	if prev, ok := b.byKey[key]; ok {
		b.removeFromIndexes(prev)
	}
	b.byKey[key] = entry

	if spec := text.Normalize(entry.Spec); spec != "" {
		b.bySpec[spec] = append(b.bySpec[spec], entry)
	}
	b.byName[text.Normalize(entry.Name)] = append(b.byName[text.Normalize(entry.Name)], entry)
}

func (b *Book) removeFromIndexes(entry Entry) {
	if spec := text.Normalize(entry.Spec); spec != "" {
		b.bySpec[spec] = withoutSource(b.bySpec[spec], entry)
	}
	name := text.Normalize(entry.Name)
	b.byName[name] = withoutSource(b.byName[name], entry)
}

func withoutSource(entries []Entry, drop Entry) []Entry {
	out := entries[:0]
	for _, e := range entries {
		if e.Name == drop.Name && e.Spec == drop.Spec && e.Source == drop.Source {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Size reports the number of distinct priced items.
func (b *Book) Size() int {
	return len(b.byKey)
}

// Match looks up prices for request items. The ladder goes from exact to
// loose: exact (name, spec), then exact spec, then fuzzy spec, then name.
func (b *Book) Match(items []requestparse.Item) []MatchResult {
	results := make([]MatchResult, len(items))
	for i, item := range items {
		results[i] = b.matchOne(item)
	}
	return results
}

func (b *Book) matchOne(item requestparse.Item) MatchResult {
	result := MatchResult{Item: item, Status: StatusNoPrice}

	entry, method, candidates := b.lookup(item)
	result.Candidates = candidates
	if entry == nil {
		return result
	}

	result.Matched = true
	result.Status = StatusMatched
	result.Method = method
	result.UnitPrice = entry.UnitPrice
	if item.Quantity != nil {
		result.Amount = entry.UnitPrice * *item.Quantity
	}
	return result
}

func (b *Book) lookup(item requestparse.Item) (*Entry, string, []Entry) {
	if item.Spec != "" {
		if entry, ok := b.byKey[itemKey(item.Name, item.Spec)]; ok {
			return &entry, MethodNameSpec, nil
		}
		if entries := b.bySpec[text.Normalize(item.Spec)]; len(entries) > 0 {
			return newest(entries), MethodSpec, entries
		}
		if entries := b.fuzzySpec(item.Spec); len(entries) > 0 {
			return newest(entries), MethodSpecFuzzy, entries
		}
	}
	if entries := b.byName[text.Normalize(item.Name)]; len(entries) > 0 {
		return newest(entries), MethodName, entries
	}
	return nil, "", nil
}

// fuzzySpec matches specs whose alphanumeric keys are equal or where one key
// ends with the other, catching vendor prefixes like "SUS M8x30" vs "M8x30".
func (b *Book) fuzzySpec(spec string) []Entry {
	want := fuzzyKey(spec)
	if want == "" {
		return nil
	}
	var matches []Entry
	for _, entries := range b.bySpec {
		for _, entry := range entries {
			have := fuzzyKey(entry.Spec)
			if have == "" {
				continue
			}
			if have == want || strings.HasSuffix(have, want) || strings.HasSuffix(want, have) {
				matches = append(matches, entry)
			}
		}
	}
	return matches
}

func newest(entries []Entry) *Entry {
	best := entries[0]
	for _, e := range entries[1:] {
		if e.ModTime.After(best.ModTime) {
			best = e
		}
	}
	return &best
}

// readPricedRows extracts (name, spec, unit, unit price) rows from one
// historical quotation workbook. The header row is located the same way as in
// request parsing; rows without a numeric unit price are skipped.
func readPricedRows(path string, cfg config.ParserConfig) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		headerRow, cols, ok := findPriceHeader(rows, cfg)
		if !ok {
			continue
		}

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

			price, ok := text.ParseNumber(cellAt(row, cols.price))
			if !ok {
				continue
			}
			out = append(out, Entry{
				Name:      name,
				Spec:      text.NormalizeValue(cellAt(row, cols.spec)),
				Unit:      text.NormalizeValue(cellAt(row, cols.unit)),
				UnitPrice: price,
			})
		}
	}
	return out, nil
}

type priceColumns struct {
	name, spec, unit, price int
}

// findPriceHeader needs both an item-name and a unit-price column on the same
// row; spec and unit columns are optional.
func findPriceHeader(rows [][]string, cfg config.ParserConfig) (int, priceColumns, bool) {
	nameLabels := normalizedSet(cfg.NameLabels)
	specLabels := normalizedSet(cfg.SpecLabels)
	unitLabels := normalizedSet(cfg.UnitLabels)
	priceLabels := normalizedSet(cfg.UnitPriceLabels)

	for i, row := range rows {
		cols := priceColumns{name: -1, spec: -1, unit: -1, price: -1}
		for j, cell := range row {
			label := text.Normalize(cell)
			switch {
			case nameLabels[label] && cols.name < 0:
				cols.name = j
			case specLabels[label] && cols.spec < 0:
				cols.spec = j
			case unitLabels[label] && cols.unit < 0:
				cols.unit = j
			case priceLabels[label] && cols.price < 0:
				cols.price = j
			}
		}
		if cols.name >= 0 && cols.price >= 0 {
			return i, cols, true
		}
	}
	return 0, priceColumns{}, false
}

func normalizedSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[text.Normalize(l)] = true
	}
	return set
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
