package bulk

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// BatchSubmitter is the slice of the backend client the processor needs.
type BatchSubmitter interface {
	BulkUploadStudents(ctx context.Context, rows []model.StudentRow) (*model.BulkUploadResponse, error)
}

// Processor runs the bulk import pipeline: parse, validate, submit the
// surviving rows as one batch, and keep the server's per-row outcomes and
// summary verbatim. A row the server marks FAILED never fails the batch;
// the batch is atomic at the transport level only.
type Processor struct {
	submitter BatchSubmitter
	csv       *CSVStrategy
	excel     *ExcelStrategy
	log       zerolog.Logger
}

func NewProcessor(submitter BatchSubmitter) *Processor {
	return &Processor{
		submitter: submitter,
		csv:       NewCSVStrategy(),
		excel:     NewExcelStrategy(),
		log:       logger.Component("bulk"),
	}
}

// ProcessCSV imports a delimited-text payload.
func (p *Processor) ProcessCSV(ctx context.Context, data []byte) (*model.ImportReport, error) {
	return p.process(ctx, p.csv, data)
}

// ProcessExcel imports an .xlsx payload.
func (p *Processor) ProcessExcel(ctx context.Context, data []byte) (*model.ImportReport, error) {
	return p.process(ctx, p.excel, data)
}

func (p *Processor) process(ctx context.Context, strategy ParsingStrategy, data []byte) (*model.ImportReport, error) {
	parsed, err := strategy.Parse(ctx, data)
	if err != nil {
		return nil, err
	}

	if len(parsed.Rows) == 0 {
		return nil, errors.ErrNoValidRows
	}

	resp, err := p.submitter.BulkUploadStudents(ctx, parsed.Rows)
	if err != nil {
		return nil, err
	}

	// Results and summary are stored as the server returned them; the
	// counts are never recomputed locally, so what is displayed always
	// matches what the server persisted.
	report := &model.ImportReport{
		ID:       uuid.NewString(),
		Results:  resp.Results,
		Summary:  resp.Summary,
		Skipped:  parsed.Skipped,
		RowCount: len(parsed.Rows),
	}

	p.log.Info().
		Str("report_id", report.ID).
		Int("rows", report.RowCount).
		Int("skipped", len(report.Skipped)).
		Int("succeeded", report.Summary.TotalSucceeded).
		Int("failed", report.Summary.TotalFailed).
		Msg("Bulk import completed")

	return report, nil
}
