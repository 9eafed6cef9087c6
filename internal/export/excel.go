package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/resume-screener/internal/models"
)

// excelColumns are the visible ledger columns, in export order. The dedup
// key is internal and never exported.
var excelColumns = []string{
	"Waktu", "Drive Link", "Nama", "Email", "Nomor Telepon",
	"Pendidikan Terakhir", "Kekuatan", "Kekurangan",
	"Risk Factor", "Reward Factor", "Overall Fit", "Justifikasi",
}

// WriteExcel generates an Excel workbook with the screening results for
// one position and returns it as an in-memory buffer ready to serve as a
// download.
func WriteExcel(records []models.ResumeRecord, position string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	resultsSheet := "Hasil Screening"
	f.SetSheetName("Sheet1", resultsSheet)

	if err := createResultsSheet(f, resultsSheet, records, position); err != nil {
		return nil, fmt.Errorf("failed to create results sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf, nil
}

func createResultsSheet(f *excelize.File, sheetName string, records []models.ResumeRecord, position string) error {
	// Wide columns for the free-text analysis fields
	f.SetColWidth(sheetName, "A", "B", 22)
	f.SetColWidth(sheetName, "C", "F", 25)
	f.SetColWidth(sheetName, "G", "J", 45)
	f.SetColWidth(sheetName, "K", "K", 12)
	f.SetColWidth(sheetName, "L", "L", 45)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"5B9BD5"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Resume Screening - %s (generated %s)", position, time.Now().Format("2006-01-02 15:04"))
	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "L1", titleStyle)
	f.MergeCell(sheetName, "A1", "L1")

	for i, col := range excelColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, col)
	}
	f.SetCellStyle(sheetName, "A2", "L2", headerStyle)

	for i, record := range records {
		row := i + 3
		values := []interface{}{
			record.Timestamp,
			record.ArchiveLink,
			record.Name,
			record.Email,
			record.Phone,
			record.Education,
			record.Strengths,
			record.Weaknesses,
			record.RiskFactor,
			record.RewardFactor,
			record.OverallFit,
			record.Justification,
		}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetName, cell, v)
		}
	}

	return nil
}
