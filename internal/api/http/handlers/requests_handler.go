package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/buyback-service/internal/api/dto"
	"github.com/spec-kit/buyback-service/internal/auth"
	"github.com/spec-kit/buyback-service/internal/domain"
	"github.com/spec-kit/buyback-service/internal/observability"
	"github.com/spec-kit/buyback-service/internal/ratelimit"
	"github.com/spec-kit/buyback-service/internal/service"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

// RequestsHandler manages the public submission and read endpoints.
type RequestsHandler struct {
	requests        *service.RequestService
	limiter         *ratelimit.Limiter
	metrics         *observability.Metrics
	trackingBaseURL string
}

// NewRequestsHandler constructs the handler.
func NewRequestsHandler(requests *service.RequestService, limiter *ratelimit.Limiter, metrics *observability.Metrics, trackingBaseURL string) *RequestsHandler {
	return &RequestsHandler{
		requests:        requests,
		limiter:         limiter,
		metrics:         metrics,
		trackingBaseURL: trackingBaseURL,
	}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	if err := h.checkLimit(c, ratelimit.ActionSubmit); err != nil {
		return err
	}

	var req dto.CreateRequestPayload
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input, err := createInputFromPayload(&req)
	if err != nil {
		return err
	}
	ip := c.IP()
	input.SubmitterIP = &ip

	created, err := h.requests.Create(c.Context(), *input)
	if err != nil {
		return err
	}

	resp := dto.CreateRequestResponse{
		ID:                created.ID,
		RequestNumber:     created.RequestNumber,
		Status:            string(created.Status),
		VerificationToken: created.VerificationToken,
		TrackingURL:       h.trackingBaseURL + "/" + created.RequestNumber,
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// Get GET /requests/:id — staff see everything, customers present a proof
// and receive the redacted view.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	if cred, ok := auth.CredentialFromContext(c); ok {
		view, err := h.requests.GetForStaff(c.Context(), cred, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewRequestDetail(view)})
	}

	if err := h.checkLimit(c, ratelimit.ActionTrack); err != nil {
		return err
	}
	view, err := h.requests.GetForCustomer(c.Context(), id, proofFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerRequestDetail(view)})
}

// Track GET /requests/track/:request_number.
func (h *RequestsHandler) Track(c *fiber.Ctx) error {
	if err := h.checkLimit(c, ratelimit.ActionVerify); err != nil {
		return err
	}

	view, err := h.requests.GetByNumberForCustomer(c.Context(), c.Params("request_number"), proofFromQuery(c))
	if err != nil {
		return err
	}

	projection := service.ProjectTracking(view.Request, view.Appraisals)
	return c.JSON(fiber.Map{"data": dto.NewTrackingResponse(projection)})
}

func (h *RequestsHandler) checkLimit(c *fiber.Ctx, action ratelimit.Action) error {
	result, err := h.limiter.Check(c.Context(), c.IP(), action)
	if err != nil {
		// A broken limiter backend must not take the public API down.
		return nil
	}
	if result.Limited {
		h.metrics.RecordRateLimited(string(action))
		return apperrors.NewRateLimited(result.ResetTime)
	}
	return nil
}

func proofFromQuery(c *fiber.Ctx) domain.CustomerProof {
	proof := domain.CustomerProof{}
	if token := c.Query("token"); token != "" {
		proof.Token = &token
	}
	if email := c.Query("email"); email != "" {
		proof.Email = &email
	}
	if phone := c.Query("phone"); phone != "" {
		proof.Phone = &phone
	}
	return proof
}

func createInputFromPayload(req *dto.CreateRequestPayload) (*service.CreateInput, error) {
	items := make([]domain.RequestItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.RequestItem{
			Name:           item.Name,
			Category:       domain.ItemCategory(item.Category),
			Condition:      item.Condition,
			EstimatedValue: item.EstimatedValue,
			Description:    item.Description,
			Manufacturer:   item.Manufacturer,
			Model:          item.Model,
		})
	}
	categories := make([]domain.ItemCategory, 0, len(req.Categories))
	for _, c := range req.Categories {
		categories = append(categories, domain.ItemCategory(c))
	}

	input := &service.CreateInput{
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		Address:          req.Address,
		PostalCode:       req.PostalCode,
		AuthMethod:       domain.AuthMethod(req.AuthMethod),
		Priority:         domain.RequestPriority(req.Priority),
		Items:            items,
		ExtraCategories:  categories,
		PreferredStoreID: req.PreferredStoreID,
		Note:             req.Note,
	}
	if input.AuthMethod == "" {
		input.AuthMethod = domain.AuthMethodGuest
	}
	if req.PreferredPickupDate != nil && *req.PreferredPickupDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.PreferredPickupDate)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid preferred_pickup_date", nil)
		}
		input.PreferredPickupDate = &parsed
	}
	return input, nil
}
