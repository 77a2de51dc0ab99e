// Package render fills a workbook template with cell assignments and writes
// the result atomically. The source template is opened read-only and never
// mutated; styles, merged ranges and embedded images survive because the
// workbook is saved as a whole rather than rebuilt.
package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"quotegen/internal/common/errors"
	"quotegen/internal/common/logger"
)

// Assignment is one cell write. Duplicated here as a minimal shape so the
// renderer does not depend on the mapping layer.
type Assignment struct {
	Cell  string
	Value interface{}
}

type Renderer struct {
	log logger.Logger
}

func New(log logger.Logger) *Renderer {
	return &Renderer{log: log}
}

// Render opens the template, applies the assignments on the given sheet (or
// the workbook's first sheet when sheet is empty) and writes the filled
// workbook to destPath. The write goes through a temp file in destPath's
// directory followed by a rename, so a crash mid-save leaves no partial
// document at destPath.
func (r *Renderer) Render(templatePath, sheet string, assignments []Assignment, destPath string) error {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return errors.NewRenderIOError(templatePath, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return errors.NewCellWriteError(sheet, fmt.Errorf("sheet %q not found", sheet))
	}

	anchors, err := mergeAnchors(f, sheet)
	if err != nil {
		return errors.NewRenderIOError(templatePath, err)
	}

	for _, a := range assignments {
		cell := a.Cell
		if anchor, merged := anchors[cell]; merged {
			cell = anchor
		}
		if err := f.SetCellValue(sheet, cell, a.Value); err != nil {
			return errors.NewCellWriteError(a.Cell, err)
		}
	}

	return r.saveAtomic(f, destPath)
}

func (r *Renderer) saveAtomic(f *excelize.File, destPath string) error {
	dir := filepath.Dir(destPath)
	tmp, err := os.CreateTemp(dir, ".render-*.xlsx")
	if err != nil {
		return errors.NewRenderIOError(destPath, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := f.SaveAs(tmpPath); err != nil {
		os.Remove(tmpPath)
		return errors.NewRenderIOError(destPath, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return errors.NewRenderIOError(destPath, err)
	}

	r.log.Debug("Rendered document", map[string]interface{}{"path": destPath})
	return nil
}

// mergeAnchors maps every cell inside a merged range to the range's top-left
// cell, which is the only writable cell of the range.
func mergeAnchors(f *excelize.File, sheet string) (map[string]string, error) {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, err
	}

	anchors := make(map[string]string)
	for _, m := range merges {
		anchor := m.GetStartAxis()
		x1, y1, err := excelize.CellNameToCoordinates(anchor)
		if err != nil {
			continue
		}
		x2, y2, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			continue
		}
		for x := x1; x <= x2; x++ {
			for y := y1; y <= y2; y++ {
				name, err := excelize.CoordinatesToCellName(x, y)
				if err != nil {
					continue
				}
				anchors[name] = anchor
			}
		}
	}
	return anchors, nil
}
