package dto

import (
	"time"

	"github.com/spec-kit/buyback-service/internal/domain"
	"github.com/spec-kit/buyback-service/internal/service"
)

// ItemPayload describes one submitted good.
type ItemPayload struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	Condition      string `json:"condition"`
	EstimatedValue int64  `json:"estimated_value"`
	Description    string `json:"description"`
	Manufacturer   string `json:"manufacturer"`
	Model          string `json:"model"`
}

// CreateRequestPayload is the public submission body.
type CreateRequestPayload struct {
	CustomerName        string        `json:"customer_name"`
	CustomerEmail       *string       `json:"customer_email"`
	CustomerPhone       *string       `json:"customer_phone"`
	Address             *string       `json:"address"`
	PostalCode          *string       `json:"postal_code"`
	AuthMethod          string        `json:"auth_method"`
	Priority            string        `json:"priority"`
	Items               []ItemPayload `json:"items"`
	Categories          []string      `json:"categories"`
	PreferredStoreID    *string       `json:"preferred_store_id"`
	PreferredPickupDate *string       `json:"preferred_pickup_date"`
	Note                *string       `json:"note"`
}

// CreateRequestResponse returns the natural key and, for guest submissions,
// the one-time verification token.
type CreateRequestResponse struct {
	ID                string  `json:"id"`
	RequestNumber     string  `json:"request_number"`
	Status            string  `json:"status"`
	VerificationToken *string `json:"verification_token,omitempty"`
	TrackingURL       string  `json:"tracking_url"`
}

// AppraisalPayload is one staff-submitted appraisal line.
type AppraisalPayload struct {
	ItemName       string `json:"item_name"`
	ItemCondition  string `json:"item_condition"`
	MarketValue    int64  `json:"market_value"`
	AppraisedValue int64  `json:"appraised_value"`
	AppraisalNotes string `json:"appraisal_notes"`
}

// UpdateRequestPayload is the staff partial patch body.
type UpdateRequestPayload struct {
	Status              *string            `json:"status"`
	Priority            *string            `json:"priority"`
	AssignedStaffID     *string            `json:"assigned_staff_id"`
	PreferredPickupDate *string            `json:"preferred_pickup_date"`
	Note                *string            `json:"note"`
	Appraisals          []AppraisalPayload `json:"appraisals"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	ActorName      string    `json:"actor_name"`
	Content        string    `json:"content"`
	OldStatus      *string   `json:"old_status,omitempty"`
	NewStatus      *string   `json:"new_status,omitempty"`
	AppraisalCount *int      `json:"appraisal_count,omitempty"`
	TotalValue     *int64    `json:"total_value,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AppraisalResponse is one appraisal line.
type AppraisalResponse struct {
	ItemName       string    `json:"item_name"`
	ItemCondition  string    `json:"item_condition"`
	MarketValue    int64     `json:"market_value"`
	AppraisedValue int64     `json:"appraised_value"`
	AppraisalNotes string    `json:"appraisal_notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RequestSummary is the staff list row.
type RequestSummary struct {
	ID                  string     `json:"id"`
	RequestNumber       string     `json:"request_number"`
	Status              string     `json:"status"`
	Priority            string     `json:"priority"`
	CustomerName        string     `json:"customer_name"`
	ItemCount           int        `json:"item_count"`
	EstimatedTotalValue int64      `json:"estimated_total_value"`
	PreferredStoreID    *string    `json:"preferred_store_id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// RequestDetailResponse is the staff-facing full aggregate.
type RequestDetailResponse struct {
	ID                  string                 `json:"id"`
	RequestNumber       string                 `json:"request_number"`
	Status              string                 `json:"status"`
	Priority            string                 `json:"priority"`
	AuthMethod          string                 `json:"auth_method"`
	CustomerName        string                 `json:"customer_name"`
	CustomerEmail       *string                `json:"customer_email"`
	CustomerPhone       *string                `json:"customer_phone"`
	Address             *string                `json:"address"`
	PostalCode          *string                `json:"postal_code"`
	Items               []ItemPayload          `json:"items"`
	ItemCategories      []string               `json:"item_categories"`
	EstimatedTotalValue int64                  `json:"estimated_total_value"`
	PreferredStoreID    *string                `json:"preferred_store_id"`
	PreferredPickupDate *string                `json:"preferred_pickup_date,omitempty"`
	AssignedStaffID     *string                `json:"assigned_staff_id"`
	ReviewedBy          *string                `json:"reviewed_by"`
	ReviewedAt          *time.Time             `json:"reviewed_at"`
	SubmitterIP         *string                `json:"submitter_ip,omitempty"`
	History             []HistoryEntryResponse `json:"communication_history"`
	Appraisals          []AppraisalResponse    `json:"appraisals"`
	TotalAppraisedValue int64                  `json:"total_appraised_value"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// NewRequestSummary maps a domain request onto the list row.
func NewRequestSummary(req *domain.BuybackRequest) RequestSummary {
	return RequestSummary{
		ID:                  req.ID,
		RequestNumber:       req.RequestNumber,
		Status:              string(req.Status),
		Priority:            string(req.Priority),
		CustomerName:        req.CustomerName,
		ItemCount:           len(req.Items),
		EstimatedTotalValue: req.EstimatedTotalValue,
		PreferredStoreID:    req.PreferredStoreID,
		CreatedAt:           req.CreatedAt,
		UpdatedAt:           req.UpdatedAt,
	}
}

// NewRequestDetail maps the aggregate view for staff readers.
func NewRequestDetail(view *service.RequestView) RequestDetailResponse {
	req := view.Request
	resp := RequestDetailResponse{
		ID:                  req.ID,
		RequestNumber:       req.RequestNumber,
		Status:              string(req.Status),
		Priority:            string(req.Priority),
		AuthMethod:          string(req.AuthMethod),
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhone:       req.CustomerPhone,
		Address:             req.Address,
		PostalCode:          req.PostalCode,
		Items:               itemPayloads(req.Items),
		ItemCategories:      categoryNames(req.ItemCategories),
		EstimatedTotalValue: req.EstimatedTotalValue,
		PreferredStoreID:    req.PreferredStoreID,
		AssignedStaffID:     req.AssignedStaffID,
		ReviewedBy:          req.ReviewedBy,
		ReviewedAt:          req.ReviewedAt,
		SubmitterIP:         req.SubmitterIP,
		History:             historyResponses(req.History, false),
		Appraisals:          appraisalResponses(view.Appraisals),
		TotalAppraisedValue: view.TotalAppraisedValue,
		CreatedAt:           req.CreatedAt,
		UpdatedAt:           req.UpdatedAt,
	}
	if req.PreferredPickupDate != nil {
		formatted := req.PreferredPickupDate.Format("2006-01-02")
		resp.PreferredPickupDate = &formatted
	}
	return resp
}

// NewCustomerRequestDetail maps the aggregate for proof-authorized
// customers: internal staff notes, network metadata and the raw token are
// all withheld.
func NewCustomerRequestDetail(view *service.RequestView) RequestDetailResponse {
	resp := NewRequestDetail(view)
	resp.SubmitterIP = nil
	resp.AssignedStaffID = nil
	resp.ReviewedBy = nil
	resp.History = historyResponses(view.Request.History, true)
	return resp
}

func itemPayloads(items []domain.RequestItem) []ItemPayload {
	out := make([]ItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, ItemPayload{
			Name:           item.Name,
			Category:       string(item.Category),
			Condition:      item.Condition,
			EstimatedValue: item.EstimatedValue,
			Description:    item.Description,
			Manufacturer:   item.Manufacturer,
			Model:          item.Model,
		})
	}
	return out
}

func categoryNames(categories []domain.ItemCategory) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, string(c))
	}
	return out
}

func historyResponses(entries []domain.HistoryEntry, customerView bool) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		// Internal staff notes stay internal.
		if customerView && entry.Type == domain.HistoryTypeNote {
			continue
		}
		resp := HistoryEntryResponse{
			ID:             entry.ID,
			Type:           string(entry.Type),
			ActorName:      entry.ActorName,
			Content:        entry.Content,
			AppraisalCount: entry.AppraisalCount,
			TotalValue:     entry.TotalValue,
			CreatedAt:      entry.CreatedAt,
		}
		if entry.OldStatus != nil {
			old := string(*entry.OldStatus)
			resp.OldStatus = &old
		}
		if entry.NewStatus != nil {
			next := string(*entry.NewStatus)
			resp.NewStatus = &next
		}
		out = append(out, resp)
	}
	return out
}

func appraisalResponses(appraisals []domain.Appraisal) []AppraisalResponse {
	out := make([]AppraisalResponse, 0, len(appraisals))
	for _, a := range appraisals {
		out = append(out, AppraisalResponse{
			ItemName:       a.ItemName,
			ItemCondition:  string(a.ItemCondition),
			MarketValue:    a.MarketValue,
			AppraisedValue: a.AppraisedValue,
			AppraisalNotes: a.AppraisalNotes,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out
}
