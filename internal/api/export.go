package api

import (
	"fmt"
	"net/http"
	"time"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Bookings"

// exportOwnerBookings streams the owner's bookings as an xlsx workbook.
func (s *Server) exportOwnerBookings(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	bookings, err := s.bookings.ListForOwner(r.Context(), ownerID, string(models.FilterAll), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := buildBookingsWorkbook(bookings)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("build workbook: %w", err))
		return
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := f.Write(w); err != nil {
		s.log.Error().Err(err).Msg("write xlsx response")
	}
}

func buildBookingsWorkbook(bookings []models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Item", "Booker", "Booker Email", "Start", "End", "Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), b.ID)
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), b.Item.Name)
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("C%d", row), b.Booker.Name)
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("D%d", row), b.Booker.Email)
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), b.Start.Format("2006-01-02 15:04"))
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("F%d", row), b.End.Format("2006-01-02 15:04"))
		_ = f.SetCellValue(exportSheet, fmt.Sprintf("G%d", row), string(b.Status))
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 8)
	_ = f.SetColWidth(exportSheet, "B", "D", 25)
	_ = f.SetColWidth(exportSheet, "E", "F", 18)
	_ = f.SetColWidth(exportSheet, "G", "G", 12)

	_ = f.DeleteSheet("Sheet1")

	return f, nil
}
