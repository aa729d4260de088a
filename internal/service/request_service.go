package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/buyback-service/internal/auth"
	"github.com/spec-kit/buyback-service/internal/domain"
	"github.com/spec-kit/buyback-service/internal/events"
	"github.com/spec-kit/buyback-service/internal/repository"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

// TxRunner is the transaction boundary the request store writes through.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// RequestService owns mutation of the buyback request aggregate and its
// communication history. It is the only writer of request rows; the
// appraisal aggregator writes child rows only inside transactions opened
// here.
type RequestService struct {
	db         repository.Querier
	txs        TxRunner
	requests   repository.RequestRepository
	history    repository.HistoryRepository
	stores     repository.StoreRepository
	staff      repository.StaffRepository
	outbox     repository.OutboxRepository
	aggregator *AppraisalAggregator
	appraisals repository.AppraisalRepository
	policy     domain.TransitionPolicy
	logger     *zap.Logger
	now        func() time.Time
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	DB            repository.Querier
	Tx            TxRunner
	RequestRepo   repository.RequestRepository
	HistoryRepo   repository.HistoryRepository
	StoreRepo     repository.StoreRepository
	StaffRepo     repository.StaffRepository
	OutboxRepo    repository.OutboxRepository
	Aggregator    *AppraisalAggregator
	AppraisalRepo repository.AppraisalRepository
	Policy        domain.TransitionPolicy
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	svc := &RequestService{
		db:         deps.DB,
		txs:        deps.Tx,
		requests:   deps.RequestRepo,
		history:    deps.HistoryRepo,
		stores:     deps.StoreRepo,
		staff:      deps.StaffRepo,
		outbox:     deps.OutboxRepo,
		aggregator: deps.Aggregator,
		appraisals: deps.AppraisalRepo,
		policy:     deps.Policy,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if svc.policy == nil {
		svc.policy = domain.AllowAnyTransition{}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// CreateInput describes a submission from a customer or guest.
type CreateInput struct {
	CustomerName        string
	CustomerEmail       *string
	CustomerPhone       *string
	Address             *string
	PostalCode          *string
	AuthMethod          domain.AuthMethod
	Priority            domain.RequestPriority
	Items               []domain.RequestItem
	ExtraCategories     []domain.ItemCategory
	PreferredStoreID    *string
	PreferredPickupDate *time.Time
	Note                *string
	SubmitterIP         *string
}

// UpdatePatch is a partial staff update. Nil fields are untouched.
type UpdatePatch struct {
	Status              *domain.RequestStatus
	Priority            *domain.RequestPriority
	AssignedStaffID     *string
	PreferredPickupDate *time.Time
	Note                *string
	Appraisals          []AppraisalInput
}

// RequestView is an aggregate read: the row, its audit trail, and the
// derived appraisal state.
type RequestView struct {
	Request             *domain.BuybackRequest
	Appraisals          []domain.Appraisal
	TotalAppraisedValue int64
}

// Create validates and persists a new buyback request in one transaction.
func (s *RequestService) Create(ctx context.Context, input CreateInput) (*domain.BuybackRequest, error) {
	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}

	if input.PreferredStoreID != nil {
		store, err := s.stores.GetByID(ctx, s.db, *input.PreferredStoreID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewStoreNotFound(*input.PreferredStoreID)
			}
			return nil, apperrors.MapError(err)
		}
		if !store.IsActive {
			return nil, apperrors.NewStoreNotFound(store.ID)
		}
	}

	req := &domain.BuybackRequest{
		Status:              domain.RequestStatusSubmitted,
		Priority:            input.Priority,
		AuthMethod:          input.AuthMethod,
		CustomerName:        strings.TrimSpace(input.CustomerName),
		CustomerEmail:       normalizeEmail(input.CustomerEmail),
		CustomerPhone:       input.CustomerPhone,
		Address:             input.Address,
		PostalCode:          input.PostalCode,
		Items:               input.Items,
		ItemCategories:      domain.DeriveCategories(input.Items, input.ExtraCategories),
		EstimatedTotalValue: domain.SumEstimatedValue(input.Items),
		PreferredStoreID:    input.PreferredStoreID,
		PreferredPickupDate: input.PreferredPickupDate,
		SubmitterIP:         input.SubmitterIP,
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityNormal
	}

	if input.AuthMethod == domain.AuthMethodGuest {
		token, err := auth.GenerateVerificationToken()
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		req.VerificationToken = &token
	}

	err := s.txs.WithTx(ctx, func(tx pgx.Tx) error {
		number, err := s.requests.NextRequestNumber(ctx, tx, s.now())
		if err != nil {
			return err
		}
		req.RequestNumber = number

		if err := s.requests.Create(ctx, tx, req); err != nil {
			return err
		}

		if input.Note != nil && strings.TrimSpace(*input.Note) != "" {
			entry := &domain.HistoryEntry{
				RequestID: req.ID,
				Type:      domain.HistoryTypeCustomerNote,
				ActorName: req.CustomerName,
				Content:   strings.TrimSpace(*input.Note),
			}
			if err := s.history.Append(ctx, tx, entry); err != nil {
				return err
			}
			req.History = append(req.History, *entry)
		}

		return s.outbox.Enqueue(ctx, tx, &events.Event{
			Type:             events.EventRequestCreated,
			RequestID:        req.ID,
			RequestNumber:    req.RequestNumber,
			RecipientContact: contactFor(req),
			Payload: events.RequestCreatedPayload{
				Status:              req.Status,
				AuthMethod:          req.AuthMethod,
				ItemCount:           len(req.Items),
				EstimatedTotalValue: req.EstimatedTotalValue,
				PreferredStoreID:    req.PreferredStoreID,
			},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("buyback request created",
		zap.String("request_number", req.RequestNumber),
		zap.String("auth_method", string(req.AuthMethod)),
		zap.Int("items", len(req.Items)),
	)
	return req, nil
}

// Update applies a staff patch inside one transaction: audit appends,
// scalar mutations and appraisal replacement commit together or not at all.
func (s *RequestService) Update(ctx context.Context, caller *domain.StaffCredential, id string, patch UpdatePatch) (*RequestView, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *patch.Status})
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
	}

	actorName := s.actorName(ctx, caller)

	var view *RequestView
	err := s.txs.WithTx(ctx, func(tx pgx.Tx) error {
		req, err := s.requests.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("buyback request", map[string]any{"id": id})
			}
			return err
		}
		if err := auth.AuthorizeStaff(caller, req); err != nil {
			return err
		}

		changed := false
		var pendingEvents []*events.Event

		if patch.Status != nil && *patch.Status != req.Status {
			oldStatus := req.Status
			newStatus := *patch.Status
			if !s.policy.Allowed(oldStatus, newStatus) {
				return apperrors.NewValidationError("status transition not allowed",
					map[string]any{"from": oldStatus, "to": newStatus})
			}
			req.Status = newStatus
			if newStatus == domain.RequestStatusApproved ||
				newStatus == domain.RequestStatusRejected ||
				newStatus == domain.RequestStatusCompleted {
				reviewedAt := s.now()
				req.ReviewedBy = &caller.ID
				req.ReviewedAt = &reviewedAt
			}
			entry := &domain.HistoryEntry{
				RequestID: req.ID,
				Type:      domain.HistoryTypeStatusChange,
				ActorID:   &caller.ID,
				ActorName: actorName,
				Content:   "status changed",
				OldStatus: &oldStatus,
				NewStatus: &newStatus,
			}
			if err := s.history.Append(ctx, tx, entry); err != nil {
				return err
			}
			pendingEvents = append(pendingEvents, &events.Event{
				Type:             events.EventStatusChanged,
				RequestID:        req.ID,
				RequestNumber:    req.RequestNumber,
				RecipientContact: contactFor(req),
				Payload: events.StatusChangedPayload{
					OldStatus: oldStatus,
					NewStatus: newStatus,
					ActorName: actorName,
				},
			})
			changed = true
		}

		if patch.Note != nil && strings.TrimSpace(*patch.Note) != "" {
			entry := &domain.HistoryEntry{
				RequestID: req.ID,
				Type:      domain.HistoryTypeNote,
				ActorID:   &caller.ID,
				ActorName: actorName,
				Content:   strings.TrimSpace(*patch.Note),
			}
			if err := s.history.Append(ctx, tx, entry); err != nil {
				return err
			}
			changed = true
		}

		if patch.Priority != nil && *patch.Priority != req.Priority {
			req.Priority = *patch.Priority
			changed = true
		}
		if patch.AssignedStaffID != nil {
			req.AssignedStaffID = patch.AssignedStaffID
			changed = true
		}
		if patch.PreferredPickupDate != nil {
			req.PreferredPickupDate = patch.PreferredPickupDate
			changed = true
		}

		var appraisalRows []domain.Appraisal
		var total int64
		if patch.Appraisals != nil {
			rows, sum, err := s.aggregator.Replace(ctx, tx, req.ID, &caller.ID, patch.Appraisals)
			if err != nil {
				return err
			}
			appraisalRows, total = rows, sum
			count := len(rows)
			entry := &domain.HistoryEntry{
				RequestID:      req.ID,
				Type:           domain.HistoryTypeAppraisalCompleted,
				ActorID:        &caller.ID,
				ActorName:      actorName,
				Content:        "appraisal batch recorded",
				AppraisalCount: &count,
				TotalValue:     &total,
			}
			if err := s.history.Append(ctx, tx, entry); err != nil {
				return err
			}
			pendingEvents = append(pendingEvents, &events.Event{
				Type:             events.EventAppraisalCompleted,
				RequestID:        req.ID,
				RequestNumber:    req.RequestNumber,
				RecipientContact: contactFor(req),
				Payload: events.AppraisalCompletedPayload{
					AppraisalCount: count,
					TotalValue:     total,
				},
			})
			changed = true
		}

		// A patch equal to current state touches nothing: no audit entry,
		// no version bump, updated_at left alone.
		if changed {
			if err := s.requests.Update(ctx, tx, req); err != nil {
				if errors.Is(err, repository.ErrVersionConflict) {
					return apperrors.NewConflict("request was modified concurrently, retry",
						map[string]any{"id": req.ID})
				}
				return err
			}
			for _, event := range pendingEvents {
				if err := s.outbox.Enqueue(ctx, tx, event); err != nil {
					return err
				}
			}
		}

		if appraisalRows == nil {
			appraisalRows, err = s.appraisals.ListByRequest(ctx, tx, req.ID)
			if err != nil {
				return err
			}
			total = domain.SumAppraisedValue(appraisalRows)
		}
		history, err := s.history.ListByRequest(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		req.History = history
		view = &RequestView{Request: req, Appraisals: appraisalRows, TotalAppraisedValue: total}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return view, nil
}

// Delete removes a request. Admin only; completed requests are immutable to
// deletion.
func (s *RequestService) Delete(ctx context.Context, caller *domain.StaffCredential, id string) error {
	if caller == nil {
		return apperrors.NewUnauthorized("staff credential required")
	}
	if !caller.Role.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}

	err := s.txs.WithTx(ctx, func(tx pgx.Tx) error {
		req, err := s.requests.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("buyback request", map[string]any{"id": id})
			}
			return err
		}
		if req.Status == domain.RequestStatusCompleted {
			return apperrors.NewTerminalState("completed requests cannot be deleted")
		}
		if err := s.requests.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, tx, &events.Event{
			Type:          events.EventRequestDeleted,
			RequestID:     req.ID,
			RequestNumber: req.RequestNumber,
			Payload: events.RequestDeletedPayload{
				DeletedBy: caller.ID,
				Status:    req.Status,
			},
		})
	})
	return apperrors.MapError(err)
}

// GetForStaff returns the full aggregate for an authorized staff caller.
func (s *RequestService) GetForStaff(ctx context.Context, caller *domain.StaffCredential, id string) (*RequestView, error) {
	req, err := s.requests.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("buyback request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.AuthorizeStaff(caller, req); err != nil {
		return nil, err
	}
	return s.loadView(ctx, req)
}

// GetForCustomer returns the aggregate for a customer presenting a proof of
// ownership. The row is read first so proof comparison has something to
// match; redaction happens at the response layer.
func (s *RequestService) GetForCustomer(ctx context.Context, id string, proof domain.CustomerProof) (*RequestView, error) {
	req, err := s.requests.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("buyback request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.AuthorizeCustomer(proof, req); err != nil {
		return nil, err
	}
	return s.loadView(ctx, req)
}

// GetByNumberForCustomer resolves the tracking natural key with a proof.
func (s *RequestService) GetByNumberForCustomer(ctx context.Context, number string, proof domain.CustomerProof) (*RequestView, error) {
	if !domain.RequestNumberPattern.MatchString(number) {
		return nil, apperrors.NewValidationError("malformed request number", map[string]any{"request_number": number})
	}
	req, err := s.requests.GetByRequestNumber(ctx, s.db, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("buyback request", map[string]any{"request_number": number})
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.AuthorizeCustomer(proof, req); err != nil {
		return nil, err
	}
	return s.loadView(ctx, req)
}

// List returns requests visible to the caller, with store scoping applied
// for non-admin roles.
func (s *RequestService) List(ctx context.Context, caller *domain.StaffCredential, filter repository.RequestFilter) ([]domain.BuybackRequest, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("staff credential required")
	}
	if !caller.Role.IsAdmin() {
		if !caller.Role.IsStoreScoped() || caller.StoreID == nil {
			return nil, apperrors.NewForbidden("role has no request access")
		}
		filter.StoreID = caller.StoreID
	}
	result, err := s.requests.ListWithFilter(ctx, s.db, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *RequestService) loadView(ctx context.Context, req *domain.BuybackRequest) (*RequestView, error) {
	history, err := s.history.ListByRequest(ctx, s.db, req.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	req.History = history

	appraisals, err := s.appraisals.ListByRequest(ctx, s.db, req.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &RequestView{
		Request:             req,
		Appraisals:          appraisals,
		TotalAppraisedValue: domain.SumAppraisedValue(appraisals),
	}, nil
}

func (s *RequestService) validateCreate(input *CreateInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return apperrors.NewValidationError("customer name required", nil)
	}
	if !input.AuthMethod.IsValid() {
		return apperrors.NewValidationError("invalid auth method", map[string]any{"auth_method": input.AuthMethod})
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	if len(input.Items) == 0 || len(input.Items) > domain.MaxRequestItems {
		return apperrors.NewValidationError("between 1 and 50 items required",
			map[string]any{"count": len(input.Items)})
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" {
			return apperrors.NewValidationError("item name required", map[string]any{"index": i})
		}
		if !item.Category.IsValid() {
			return apperrors.NewValidationError("invalid item category",
				map[string]any{"index": i, "category": item.Category})
		}
		if item.EstimatedValue < 0 {
			return apperrors.NewValidationError("estimated value must be non-negative",
				map[string]any{"index": i})
		}
	}

	probe := domain.BuybackRequest{
		AuthMethod:    input.AuthMethod,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
	}
	if !probe.HasContact() {
		return apperrors.NewValidationError("a contact channel matching the auth method is required", nil)
	}

	if input.PreferredPickupDate != nil {
		today := s.now().Truncate(24 * time.Hour)
		if input.PreferredPickupDate.Before(today) {
			return apperrors.NewValidationError("pickup date cannot be in the past",
				map[string]any{"preferred_pickup_date": input.PreferredPickupDate.Format("2006-01-02")})
		}
	}
	return nil
}

func (s *RequestService) actorName(ctx context.Context, caller *domain.StaffCredential) string {
	if caller == nil {
		return ""
	}
	staff, err := s.staff.GetByID(ctx, s.db, caller.ID)
	if err != nil {
		return caller.ID
	}
	return staff.Name
}

func contactFor(req *domain.BuybackRequest) *string {
	if req.CustomerEmail != nil && *req.CustomerEmail != "" {
		return req.CustomerEmail
	}
	return req.CustomerPhone
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
