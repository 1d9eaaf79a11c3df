package sheet

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/soap"
	"github.com/xuri/excelize/v2"
)

// DefaultName of the log sheet
const DefaultName = "Transcription Logs"

const previewLen = 100

var header = []interface{}{"Timestamp", "Specialty", "Detail Level", "Template", "Transcript Preview",
	"Note Preview", "Full Transcript", "Full Note"}

// Entry is one logged transcription
type Entry struct {
	Time        time.Time
	Specialty   string
	DetailLevel string
	Template    string
	Transcript  string
	Note        string
}

// Logger appends transcription rows to a workbook on disk
type Logger struct {
	file  string
	sheet string
	lock  sync.Mutex
}

// NewLogger creates workbook logger
func NewLogger(file, sheet string) (*Logger, error) {
	if file == "" {
		return nil, fmt.Errorf("no sheet file")
	}
	if sheet == "" {
		sheet = DefaultName
	}
	goapp.Log.Info().Str("file", file).Str("sheet", sheet).Msg("cfg: sheet logger")
	return &Logger{file: file, sheet: sheet}, nil
}

// Append writes the entry as a new row, creates the workbook and the sheet on first use
func (l *Logger) Append(ctx context.Context, e *Entry) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	f, err := l.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(l.sheet)
	if err != nil {
		return fmt.Errorf("can't read rows: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	tm := e.Time
	if tm.IsZero() {
		tm = time.Now()
	}
	if err := f.SetSheetRow(l.sheet, cell, &[]interface{}{tm.Format(time.RFC3339), e.Specialty, e.DetailLevel,
		e.Template, soap.Preview(e.Transcript, previewLen), soap.Preview(e.Note, previewLen), e.Transcript, e.Note}); err != nil {
		return fmt.Errorf("can't write row: %w", err)
	}
	if err := f.SaveAs(l.file); err != nil {
		return fmt.Errorf("can't save %s: %w", l.file, err)
	}
	return nil
}

func (l *Logger) open() (*excelize.File, error) {
	var f *excelize.File
	if _, err := os.Stat(l.file); err == nil {
		f, err = excelize.OpenFile(l.file)
		if err != nil {
			return nil, fmt.Errorf("can't open %s: %w", l.file, err)
		}
	} else {
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), l.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("can't rename sheet: %w", err)
		}
		if err := l.initHeader(f); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}
	idx, err := f.GetSheetIndex(l.sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("can't find sheet: %w", err)
	}
	if idx < 0 {
		if _, err := f.NewSheet(l.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("can't create sheet: %w", err)
		}
		if err := l.initHeader(f); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (l *Logger) initHeader(f *excelize.File) error {
	goapp.Log.Info().Str("sheet", l.sheet).Msg("creating log sheet")
	if err := f.SetSheetRow(l.sheet, "A1", &header); err != nil {
		return fmt.Errorf("can't write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("can't create style: %w", err)
	}
	if err := f.SetRowStyle(l.sheet, 1, 1, style); err != nil {
		return fmt.Errorf("can't set style: %w", err)
	}
	if err := f.SetPanes(l.sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("can't freeze header: %w", err)
	}
	return nil
}
