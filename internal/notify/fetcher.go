package notify

import (
	"context"

	"evalnotify_backend/internal/smartsheet"
	"evalnotify_backend/platform/apperr"
)

// RowReader is the slice of the Smartsheet client the fetcher needs.
type RowReader interface {
	GetRow(ctx context.Context, rowID int64, columnIDs []int64) (smartsheet.Row, error)
}

// SheetFetcher builds the minimal column list from configuration and reads a
// single row from the sheet.
type SheetFetcher struct {
	reader   RowReader
	settings SettingsProvider
}

func NewSheetFetcher(reader RowReader, settings SettingsProvider) *SheetFetcher {
	return &SheetFetcher{reader: reader, settings: settings}
}

// Fetch retrieves a fresh RowSnapshot. Only configured column mappings are
// requested; an empty mapping set fails before any network call.
func (f *SheetFetcher) Fetch(ctx context.Context, rowID int64) (RowSnapshot, error) {
	columns, err := f.settings.Columns(ctx)
	if err != nil {
		return RowSnapshot{}, apperr.Wrap(apperr.KindConfig, "column mappings unavailable", err)
	}

	fieldColumns := columns.FieldColumns()
	if len(fieldColumns) == 0 {
		return RowSnapshot{}, apperr.Config("no column mappings configured")
	}

	columnIDs := make([]int64, 0, len(fieldColumns))
	seen := map[int64]bool{}
	for _, fc := range fieldColumns {
		if !seen[fc.ColumnID] {
			seen[fc.ColumnID] = true
			columnIDs = append(columnIDs, fc.ColumnID)
		}
	}

	row, err := f.reader.GetRow(ctx, rowID, columnIDs)
	if err != nil {
		return RowSnapshot{}, apperr.Transport("row read failed", err)
	}

	return BuildSnapshot(row.Cells, columns), nil
}
