package dto

import (
	"time"

	"github.com/spec-kit/buyback-service/internal/service"
)

// TrackingResponse is the proof-gated customer progress view.
type TrackingResponse struct {
	RequestNumber       string                 `json:"request_number"`
	Status              string                 `json:"status"`
	Progress            service.Progress       `json:"progress"`
	Timeline            []service.TimelineStep `json:"timeline"`
	NextSteps           []service.NextStep     `json:"next_steps"`
	EstimatedCompletion *time.Time             `json:"estimated_completion,omitempty"`
	Appraisals          []AppraisalResponse    `json:"appraisals,omitempty"`
	TotalAppraisedValue *int64                 `json:"total_appraised_value,omitempty"`
}

// NewTrackingResponse maps a projection onto the wire shape.
func NewTrackingResponse(view service.TrackingView) TrackingResponse {
	resp := TrackingResponse{
		RequestNumber:       view.RequestNumber,
		Status:              string(view.Status),
		Progress:            view.Progress,
		Timeline:            view.Timeline,
		NextSteps:           view.NextSteps,
		EstimatedCompletion: view.EstimatedCompletion,
		TotalAppraisedValue: view.TotalAppraisedValue,
	}
	if len(view.Appraisals) > 0 {
		resp.Appraisals = appraisalResponses(view.Appraisals)
	}
	return resp
}
