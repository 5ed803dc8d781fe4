package storage

import (
	"context"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
)

// ReportSink defines a sink for valuation reports.
type ReportSink interface {
	PutReportBatch(reports []model.ValuationReport) error
}

// PositionStore persists tracked positions.
type PositionStore interface {
	LoadPositions(ctx context.Context) ([]model.Position, error)
	SavePositions(ctx context.Context, positions []model.Position) error
}
