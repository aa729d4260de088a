package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/buyback-service/internal/domain"
	"github.com/spec-kit/buyback-service/internal/repository"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

// AppraisalInput is one staff-submitted appraisal line.
type AppraisalInput struct {
	ItemName       string
	ItemCondition  domain.AppraisalCondition
	MarketValue    int64
	AppraisedValue int64
	AppraisalNotes string
}

// AppraisalAggregator owns the appraisal child collection. A submitted
// batch replaces the full set atomically inside the caller's transaction;
// any invalid line rejects the whole batch before a single row is touched.
type AppraisalAggregator struct {
	appraisals repository.AppraisalRepository
}

// NewAppraisalAggregator constructs the aggregator.
func NewAppraisalAggregator(repo repository.AppraisalRepository) *AppraisalAggregator {
	return &AppraisalAggregator{appraisals: repo}
}

// ValidateBatch checks every line of a batch and returns the first failure.
func (a *AppraisalAggregator) ValidateBatch(inputs []AppraisalInput) error {
	if len(inputs) == 0 {
		return apperrors.NewValidationError("appraisal batch is empty", nil)
	}
	for i, input := range inputs {
		if strings.TrimSpace(input.ItemName) == "" {
			return apperrors.NewValidationError("appraisal item name required",
				map[string]any{"index": i})
		}
		if !input.ItemCondition.IsValid() {
			return apperrors.NewValidationError(
				fmt.Sprintf("invalid item condition %q", input.ItemCondition),
				map[string]any{"index": i})
		}
		if input.MarketValue < 0 {
			return apperrors.NewValidationError("market value must be non-negative",
				map[string]any{"index": i})
		}
		if input.AppraisedValue < 0 {
			return apperrors.NewValidationError("appraised value must be non-negative",
				map[string]any{"index": i})
		}
		if len(input.AppraisalNotes) > domain.MaxAppraisalNotesLen {
			return apperrors.NewValidationError("appraisal notes too long",
				map[string]any{"index": i, "max": domain.MaxAppraisalNotesLen})
		}
	}
	return nil
}

// Replace swaps the stored appraisal set for the request and returns the
// new rows with the recomputed total of appraised values.
func (a *AppraisalAggregator) Replace(ctx context.Context, tx pgx.Tx, requestID string, appraiserID *string, inputs []AppraisalInput) ([]domain.Appraisal, int64, error) {
	if err := a.ValidateBatch(inputs); err != nil {
		return nil, 0, err
	}

	rows := make([]domain.Appraisal, len(inputs))
	for i, input := range inputs {
		rows[i] = domain.Appraisal{
			ItemName:       strings.TrimSpace(input.ItemName),
			ItemCondition:  input.ItemCondition,
			MarketValue:    input.MarketValue,
			AppraisedValue: input.AppraisedValue,
			AppraisalNotes: input.AppraisalNotes,
			AppraiserID:    appraiserID,
		}
	}

	if err := a.appraisals.ReplaceAll(ctx, tx, requestID, rows); err != nil {
		return nil, 0, err
	}
	return rows, domain.SumAppraisedValue(rows), nil
}
