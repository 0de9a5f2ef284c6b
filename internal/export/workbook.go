// Package export renders a profile as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/and161185/bankprep/internal/model"
)

// Sheet names.
const (
	ScoresSheet   = "Scores"
	SyllabusSheet = "Syllabus"
)

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	scoreHeader    = []any{"Date", "Provider", "Obtained", "Total", "Percentile", "Quant", "Reasoning", "English", "GA"}
	syllabusHeader = []any{"Subject", "Topic", "Completed", "Prelims revisions", "Mains revisions"}
)

// Write encodes p as a workbook with a Scores and a Syllabus sheet.
func Write(w io.Writer, p model.Profile) error {
	f, err := Workbook(p)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

// Workbook builds the workbook in memory. The caller closes it.
func Workbook(p model.Profile) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ScoresSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SyllabusSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	rows := make([][]any, 0, len(p.Scores)+1)
	rows = append(rows, scoreHeader)
	for _, s := range p.Scores {
		rows = append(rows, []any{
			s.Date, s.Provider, s.ObtainedMarks, s.TotalMarks, s.Percentile,
			s.SectionScores.Quant, s.SectionScores.Reasoning, s.SectionScores.English, s.SectionScores.GA,
		})
	}
	if err := writeSheet(f, ScoresSheet, rows, bold); err != nil {
		_ = f.Close()
		return nil, err
	}

	rows = [][]any{syllabusHeader}
	for _, sub := range p.Syllabus {
		for _, t := range sub.Topics {
			rows = append(rows, []any{sub.Name, t.Name, yesNo(t.Completed), t.PrelimsRevisions, t.MainsRevisions})
		}
	}
	if err := writeSheet(f, SyllabusSheet, rows, bold); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "B", 28)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
