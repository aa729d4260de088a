package service

import (
	"time"

	"github.com/spec-kit/buyback-service/internal/domain"
)

// Progress is the customer-facing summary of how far a request has moved.
type Progress struct {
	Step        int    `json:"step"`
	Label       string `json:"label"`
	Percent     int    `json:"percent"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// TimelineStep is one node of the canonical happy-path sequence.
type TimelineStep struct {
	Status    domain.RequestStatus `json:"status"`
	Label     string               `json:"label"`
	Completed bool                 `json:"completed"`
	Current   bool                 `json:"current"`
}

// NextStep is one actionable guidance entry for the customer.
type NextStep struct {
	Action      string `json:"action"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// TrackingView is the customer-safe projection of a request's progress.
type TrackingView struct {
	RequestNumber       string               `json:"request_number"`
	Status              domain.RequestStatus `json:"status"`
	Progress            Progress             `json:"progress"`
	Timeline            []TimelineStep       `json:"timeline"`
	NextSteps           []NextStep           `json:"next_steps"`
	EstimatedCompletion *time.Time           `json:"estimated_completion,omitempty"`
	Appraisals          []domain.Appraisal   `json:"-"`
	TotalAppraisedValue *int64               `json:"total_appraised_value,omitempty"`
}

var progressTable = map[domain.RequestStatus]Progress{
	domain.RequestStatusDraft:     {Step: 0, Label: "Draft", Percent: 5, Description: "Your request has not been submitted yet.", Color: "gray"},
	domain.RequestStatusSubmitted: {Step: 1, Label: "Submitted", Percent: 20, Description: "We received your request and will start reviewing it shortly.", Color: "blue"},
	domain.RequestStatusReviewing: {Step: 2, Label: "Under Review", Percent: 50, Description: "Our staff is reviewing your items.", Color: "blue"},
	domain.RequestStatusAppraised: {Step: 3, Label: "Appraised", Percent: 75, Description: "Your items have been appraised.", Color: "indigo"},
	domain.RequestStatusApproved:  {Step: 4, Label: "Approved", Percent: 90, Description: "Your offer is ready. Please arrange pickup or drop-off.", Color: "green"},
	domain.RequestStatusCompleted: {Step: 5, Label: "Completed", Percent: 100, Description: "The buyback is complete. Thank you!", Color: "green"},
	domain.RequestStatusRejected:  {Step: 0, Label: "Not Accepted", Percent: 0, Description: "We could not accept this request.", Color: "red"},
	domain.RequestStatusCancelled: {Step: 0, Label: "Cancelled", Percent: 0, Description: "This request was cancelled.", Color: "red"},
}

// happyPath is the canonical forward sequence used for the timeline.
var happyPath = []struct {
	status domain.RequestStatus
	label  string
}{
	{domain.RequestStatusSubmitted, "Submitted"},
	{domain.RequestStatusReviewing, "Under Review"},
	{domain.RequestStatusAppraised, "Appraised"},
	{domain.RequestStatusApproved, "Approved"},
	{domain.RequestStatusCompleted, "Completed"},
}

// completionOffsets maps a status to the business-day estimate until done.
// Terminal statuses have no estimate.
var completionOffsets = map[domain.RequestStatus]int{
	domain.RequestStatusSubmitted: 3,
	domain.RequestStatusReviewing: 2,
	domain.RequestStatusAppraised: 1,
	domain.RequestStatusApproved:  0,
}

// appraisalVisible gates line items out of the projection until staff have
// finished appraising.
func appraisalVisible(status domain.RequestStatus) bool {
	switch status {
	case domain.RequestStatusAppraised, domain.RequestStatusApproved, domain.RequestStatusCompleted:
		return true
	}
	return false
}

// ProjectTracking derives the customer tracking view. Pure function of the
// request and its appraisal rows; safe to call on any read path.
func ProjectTracking(req *domain.BuybackRequest, appraisals []domain.Appraisal) TrackingView {
	view := TrackingView{
		RequestNumber: req.RequestNumber,
		Status:        req.Status,
		Progress:      progressTable[req.Status],
		Timeline:      buildTimeline(req.Status),
		NextSteps:     nextStepsFor(req),
	}

	if offset, ok := completionOffsets[req.Status]; ok {
		estimated := addBusinessDays(req.CreatedAt, offset)
		view.EstimatedCompletion = &estimated
	}

	if appraisalVisible(req.Status) {
		view.Appraisals = appraisals
		total := domain.SumAppraisedValue(appraisals)
		view.TotalAppraisedValue = &total
	}
	return view
}

func buildTimeline(status domain.RequestStatus) []TimelineStep {
	currentIdx := -1
	for i, step := range happyPath {
		if step.status == status {
			currentIdx = i
			break
		}
	}

	steps := make([]TimelineStep, len(happyPath))
	for i, step := range happyPath {
		steps[i] = TimelineStep{
			Status:    step.status,
			Label:     step.label,
			Completed: currentIdx >= 0 && i <= currentIdx,
			Current:   currentIdx >= 0 && i == currentIdx,
		}
	}
	return steps
}

func nextStepsFor(req *domain.BuybackRequest) []NextStep {
	switch req.Status {
	case domain.RequestStatusDraft:
		return []NextStep{
			{Action: "submit", Label: "Submit your request", Description: "Finish and submit your request so our staff can review it."},
		}
	case domain.RequestStatusSubmitted:
		return []NextStep{
			{Action: "wait", Label: "Wait for review", Description: "Our staff will begin reviewing your items soon. No action needed."},
		}
	case domain.RequestStatusReviewing:
		return []NextStep{
			{Action: "wait", Label: "Review in progress", Description: "Staff are checking your item details. We may contact you with questions."},
		}
	case domain.RequestStatusAppraised:
		return []NextStep{
			{Action: "review_offer", Label: "Review your appraisal", Description: "Check the appraised values for your items."},
		}
	case domain.RequestStatusApproved:
		description := "Bring your items to the store to complete the sale."
		if req.PreferredPickupDate != nil {
			description = "Your pickup is scheduled for " + req.PreferredPickupDate.Format("2006-01-02") + ". Have your items ready."
		}
		return []NextStep{
			{Action: "pickup", Label: "Arrange handover", Description: description},
		}
	case domain.RequestStatusCompleted:
		return []NextStep{
			{Action: "done", Label: "All done", Description: "Your buyback is complete. We hope to see you again."},
		}
	case domain.RequestStatusRejected, domain.RequestStatusCancelled:
		return []NextStep{
			{Action: "contact", Label: "Contact us", Description: "Reach out to the store if you have questions about this outcome."},
		}
	}
	return nil
}

// addBusinessDays advances from start by n business days, skipping
// weekends. Zero days lands on start (or the next weekday when start falls
// on a weekend).
func addBusinessDays(start time.Time, n int) time.Time {
	t := start
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	for i := 0; i < n; i++ {
		t = t.AddDate(0, 0, 1)
		for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t
}
