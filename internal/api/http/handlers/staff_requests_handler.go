package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/buyback-service/internal/api/dto"
	"github.com/spec-kit/buyback-service/internal/auth"
	"github.com/spec-kit/buyback-service/internal/domain"
	"github.com/spec-kit/buyback-service/internal/repository"
	"github.com/spec-kit/buyback-service/internal/service"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

// StaffRequestsHandler exposes staff review endpoints.
type StaffRequestsHandler struct {
	requests *service.RequestService
}

// NewStaffRequestsHandler constructs the handler.
func NewStaffRequestsHandler(requests *service.RequestService) *StaffRequestsHandler {
	return &StaffRequestsHandler{requests: requests}
}

// List GET /requests (staff only).
func (h *StaffRequestsHandler) List(c *fiber.Ctx) error {
	cred, ok := auth.CredentialFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff credential required")
	}

	filter := parseListQuery(c)
	result, err := h.requests.List(c.Context(), cred, filter)
	if err != nil {
		return err
	}

	items := make([]dto.RequestSummary, 0, len(result))
	for i := range result {
		items = append(items, dto.NewRequestSummary(&result[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Update PUT /requests/:id (staff only).
func (h *StaffRequestsHandler) Update(c *fiber.Ctx) error {
	cred, ok := auth.CredentialFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff credential required")
	}

	var req dto.UpdateRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	patch, err := patchFromPayload(&req)
	if err != nil {
		return err
	}

	view, err := h.requests.Update(c.Context(), cred, c.Params("id"), *patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestDetail(view)})
}

// Delete DELETE /requests/:id (admin only).
func (h *StaffRequestsHandler) Delete(c *fiber.Ctx) error {
	cred, ok := auth.CredentialFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff credential required")
	}
	if err := h.requests.Delete(c.Context(), cred, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseListQuery(c *fiber.Ctx) repository.RequestFilter {
	filter := repository.RequestFilter{}

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.RequestStatus(strings.TrimSpace(part)))
		}
	}
	if raw := c.Query("priority"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			filter.Priorities = append(filter.Priorities, domain.RequestPriority(strings.TrimSpace(part)))
		}
	}
	if storeID := c.Query("store_id"); storeID != "" {
		filter.StoreID = &storeID
	}
	if email := c.Query("email"); email != "" {
		filter.Email = &email
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := c.Query("created_from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.CreatedFrom = &parsed
		}
	}
	if to := c.Query("created_to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.CreatedTo = &parsed
		}
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit
	return filter
}

func patchFromPayload(req *dto.UpdateRequestPayload) (*service.UpdatePatch, error) {
	patch := &service.UpdatePatch{
		AssignedStaffID: req.AssignedStaffID,
		Note:            req.Note,
	}
	if req.Status != nil {
		status := domain.RequestStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.RequestPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.PreferredPickupDate != nil && *req.PreferredPickupDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.PreferredPickupDate)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid preferred_pickup_date", nil)
		}
		patch.PreferredPickupDate = &parsed
	}
	if req.Appraisals != nil {
		inputs := make([]service.AppraisalInput, 0, len(req.Appraisals))
		for _, a := range req.Appraisals {
			inputs = append(inputs, service.AppraisalInput{
				ItemName:       a.ItemName,
				ItemCondition:  domain.AppraisalCondition(a.ItemCondition),
				MarketValue:    a.MarketValue,
				AppraisedValue: a.AppraisedValue,
				AppraisalNotes: a.AppraisalNotes,
			})
		}
		patch.Appraisals = inputs
	}
	return patch, nil
}
