package domain

import "time"

// AppraisalCondition grades an item during staff appraisal.
type AppraisalCondition string

const (
	ConditionS    AppraisalCondition = "S"
	ConditionA    AppraisalCondition = "A"
	ConditionB    AppraisalCondition = "B"
	ConditionC    AppraisalCondition = "C"
	ConditionD    AppraisalCondition = "D"
	ConditionJunk AppraisalCondition = "JUNK"
)

// IsValid reports whether the condition grade is recognized.
func (c AppraisalCondition) IsValid() bool {
	switch c {
	case ConditionS, ConditionA, ConditionB, ConditionC, ConditionD, ConditionJunk:
		return true
	}
	return false
}

// MaxAppraisalNotesLen bounds free-form appraisal notes.
const MaxAppraisalNotesLen = 1000

// Appraisal is a child row of a buyback request. The full set for a request
// is replaced wholesale on every staff submission; the total appraised value
// is always derived from the rows, never stored on the parent.
type Appraisal struct {
	ID             string
	RequestID      string
	ItemName       string
	ItemCondition  AppraisalCondition
	MarketValue    int64
	AppraisedValue int64
	AppraisalNotes string
	AppraiserID    *string
	CreatedAt      time.Time
}

// SumAppraisedValue totals appraised values over a row set.
func SumAppraisedValue(appraisals []Appraisal) int64 {
	var total int64
	for _, a := range appraisals {
		total += a.AppraisedValue
	}
	return total
}
