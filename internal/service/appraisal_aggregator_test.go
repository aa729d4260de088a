package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/buyback-service/internal/domain"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

func validAppraisalInputs() []AppraisalInput {
	return []AppraisalInput{
		{ItemName: "Switch", ItemCondition: domain.ConditionA, MarketValue: 15000, AppraisedValue: 12000},
		{ItemName: "PS5", ItemCondition: domain.ConditionS, MarketValue: 40000, AppraisedValue: 30000, AppraisalNotes: "mint, boxed"},
	}
}

func TestValidateBatch(t *testing.T) {
	aggregator := NewAppraisalAggregator(nil)

	assert.NoError(t, aggregator.ValidateBatch(validAppraisalInputs()))

	t.Run("empty batch", func(t *testing.T) {
		err := aggregator.ValidateBatch(nil)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("one bad line rejects the whole batch", func(t *testing.T) {
		inputs := validAppraisalInputs()
		inputs = append(inputs, AppraisalInput{ItemName: "Kettle", ItemCondition: "E"})

		err := aggregator.ValidateBatch(inputs)
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		assert.Equal(t, 2, domainErr.Details["index"])
	})

	t.Run("missing item name", func(t *testing.T) {
		inputs := []AppraisalInput{{ItemName: "  ", ItemCondition: domain.ConditionB}}
		assert.Error(t, aggregator.ValidateBatch(inputs))
	})

	t.Run("negative values", func(t *testing.T) {
		market := []AppraisalInput{{ItemName: "x", ItemCondition: domain.ConditionB, MarketValue: -1}}
		assert.Error(t, aggregator.ValidateBatch(market))

		appraised := []AppraisalInput{{ItemName: "x", ItemCondition: domain.ConditionB, AppraisedValue: -1}}
		assert.Error(t, aggregator.ValidateBatch(appraised))
	})

	t.Run("notes length bound", func(t *testing.T) {
		atLimit := []AppraisalInput{{
			ItemName:       "x",
			ItemCondition:  domain.ConditionC,
			AppraisalNotes: strings.Repeat("a", domain.MaxAppraisalNotesLen),
		}}
		assert.NoError(t, aggregator.ValidateBatch(atLimit))

		over := []AppraisalInput{{
			ItemName:       "x",
			ItemCondition:  domain.ConditionC,
			AppraisalNotes: strings.Repeat("a", domain.MaxAppraisalNotesLen+1),
		}}
		assert.Error(t, aggregator.ValidateBatch(over))
	})

	t.Run("junk grade is valid", func(t *testing.T) {
		inputs := []AppraisalInput{{ItemName: "broken radio", ItemCondition: domain.ConditionJunk}}
		assert.NoError(t, aggregator.ValidateBatch(inputs))
	})
}
