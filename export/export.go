// Package export serializes every record of the logbook, as a JSON backup or
// as a spreadsheet of the same data.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"github.com/xuri/excelize/v2"
)

// Reader lists all records regardless of owner.
type Reader interface {
	ListSeasons(ctx context.Context, f store.SeasonFilter) ([]models.Season, error)
	FindLogs(ctx context.Context, f store.LogFilter) ([]models.LogEntry, error)
	ListMaterials(ctx context.Context) ([]models.Material, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
}

type Snapshot struct {
	Seasons    []models.Season   `json:"seasons"`
	LogEntries []models.LogEntry `json:"logEntries"`
	Materials  []models.Material `json:"materials"`
	Templates  []models.Template `json:"templates"`
}

type Backup struct {
	ExportDate time.Time `json:"exportDate"`
	Data       Snapshot  `json:"data"`
}

// Collect loads every season, log entry, material and template.
func Collect(ctx context.Context, r Reader) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.Seasons, err = r.ListSeasons(ctx, store.SeasonFilter{}); err != nil {
		return s, fmt.Errorf("seasons: %w", err)
	}
	if s.LogEntries, err = r.FindLogs(ctx, store.LogFilter{}); err != nil {
		return s, fmt.Errorf("log entries: %w", err)
	}
	if s.Materials, err = r.ListMaterials(ctx); err != nil {
		return s, fmt.Errorf("materials: %w", err)
	}
	if s.Templates, err = r.ListTemplates(ctx); err != nil {
		return s, fmt.Errorf("templates: %w", err)
	}
	return s, nil
}

// FileName is the attachment name of a backup taken at t.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("backup_%d.%s", t.UnixMilli(), ext)
}

func WriteJSON(w io.Writer, b Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// Sheet names of the workbook, in order.
const (
	SheetSeasons   = "Seasons"
	SheetLogs      = "Logs"
	SheetMaterials = "Materials"
	SheetTemplates = "Templates"
)

// WriteWorkbook renders the snapshot as an XLSX workbook with one sheet per
// collection. Templates are flattened to one row per stage task. Dates are
// written in loc.
func WriteWorkbook(w io.Writer, s Snapshot, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSeasons); err != nil {
		return err
	}
	for _, name := range []string{SheetLogs, SheetMaterials, SheetTemplates} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9EAD3"}},
	})
	if err != nil {
		return err
	}

	day := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.In(loc).Format(time.DateOnly)
	}
	stamp := func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return t.In(loc).Format("2006-01-02 15:04")
	}

	seasons := make([][]any, 0, len(s.Seasons))
	names := make(map[string]string, len(s.Seasons))
	for _, se := range s.Seasons {
		names[se.ID.Hex()] = se.Name
		tpl := ""
		if se.TemplateID != nil {
			tpl = se.TemplateID.Hex()
		}
		seasons = append(seasons, []any{se.ID.Hex(), se.Name, se.FarmArea, day(se.StartDate), se.IsActive, tpl, se.OwnerID.Hex()})
	}

	logs := make([][]any, 0, len(s.LogEntries))
	for _, l := range s.LogEntries {
		mats := make([]string, 0, len(l.UsedMaterials))
		for _, m := range l.UsedMaterials {
			mats = append(mats, fmt.Sprintf("%s %g %s", m.Name, m.Quantity, m.Unit))
		}
		hash := ""
		if l.Integrity != nil {
			hash = l.Integrity.Hash
		}
		logs = append(logs, []any{
			l.ID.Hex(), names[l.SeasonID.Hex()], l.TaskName, string(l.Status), string(l.LogType),
			stamp(&l.LogDate), stamp(l.CompletedAt), strings.Join(mats, "; "), l.Notes, l.Location, hash,
		})
	}

	materials := make([][]any, 0, len(s.Materials))
	for _, m := range s.Materials {
		materials = append(materials, []any{m.ID.Hex(), m.Name, string(m.Type), m.Supplier, m.Barcode, m.Unit, m.IsActive})
	}

	var templates [][]any
	for _, t := range s.Templates {
		for _, st := range t.Stages {
			for _, task := range st.Tasks {
				sugg := make([]string, 0, len(task.SuggestedMaterials))
				for _, m := range task.SuggestedMaterials {
					sugg = append(sugg, strings.TrimSpace(m.Name+" "+m.SuggestedQuantityUnit))
				}
				templates = append(templates, []any{
					t.Name, t.CropType, st.Name, st.StartDay, st.EndDay, task.Name, task.Frequency, strings.Join(sugg, "; "),
				})
			}
		}
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetSeasons, []any{"ID", "Season", "Farm area", "Start date", "Active", "Template", "Owner"}, seasons},
		{SheetLogs, []any{"ID", "Season", "Task", "Status", "Type", "Logged", "Completed", "Materials", "Notes", "Location", "Integrity hash"}, logs},
		{SheetMaterials, []any{"ID", "Material", "Type", "Supplier", "Barcode", "Unit", "Active"}, materials},
		{SheetTemplates, []any{"Template", "Crop", "Stage", "Start day", "End day", "Task", "Frequency", "Suggested materials"}, templates},
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.header, sh.rows, header); err != nil {
			return fmt.Errorf("sheet %s: %w", sh.name, err)
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
