package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/buyback-service/internal/domain"
	"github.com/spec-kit/buyback-service/internal/events"
	"github.com/spec-kit/buyback-service/internal/repository"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeRequestRepo struct {
	byID     map[string]*domain.BuybackRequest
	counters map[string]int
	seq      int

	failUpdateWithConflict bool
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		byID:     make(map[string]*domain.BuybackRequest),
		counters: make(map[string]int),
	}
}

func (f *fakeRequestRepo) Create(_ context.Context, _ repository.Querier, req *domain.BuybackRequest) error {
	f.seq++
	req.ID = fmt.Sprintf("req-%d", f.seq)
	req.Version = 1
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	clone := *req
	f.byID[req.ID] = &clone
	return nil
}

func (f *fakeRequestRepo) Update(_ context.Context, _ repository.Querier, req *domain.BuybackRequest) error {
	if f.failUpdateWithConflict {
		return repository.ErrVersionConflict
	}
	stored, ok := f.byID[req.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != req.Version {
		return repository.ErrVersionConflict
	}
	req.Version++
	req.UpdatedAt = time.Now()
	clone := *req
	f.byID[req.ID] = &clone
	return nil
}

func (f *fakeRequestRepo) Delete(_ context.Context, _ repository.Querier, id string) error {
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, _ repository.Querier, id string) (*domain.BuybackRequest, error) {
	stored, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeRequestRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id string) (*domain.BuybackRequest, error) {
	return f.GetByID(ctx, nil, id)
}

func (f *fakeRequestRepo) GetByRequestNumber(_ context.Context, _ repository.Querier, number string) (*domain.BuybackRequest, error) {
	for _, stored := range f.byID {
		if stored.RequestNumber == number {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRequestRepo) ListWithFilter(_ context.Context, _ repository.Querier, filter repository.RequestFilter) ([]domain.BuybackRequest, error) {
	var out []domain.BuybackRequest
	for _, stored := range f.byID {
		if filter.StoreID != nil {
			if stored.PreferredStoreID == nil || *stored.PreferredStoreID != *filter.StoreID {
				continue
			}
		}
		out = append(out, *stored)
	}
	return out, nil
}

func (f *fakeRequestRepo) NextRequestNumber(_ context.Context, _ pgx.Tx, day time.Time) (string, error) {
	key := day.Format("2006-01-02")
	f.counters[key]++
	return domain.FormatRequestNumber(day, f.counters[key]), nil
}

type fakeHistoryRepo struct {
	entries map[string][]domain.HistoryEntry
	seq     int
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{entries: make(map[string][]domain.HistoryEntry)}
}

func (f *fakeHistoryRepo) Append(_ context.Context, _ repository.Querier, entry *domain.HistoryEntry) error {
	f.seq++
	entry.ID = fmt.Sprintf("hist-%d", f.seq)
	entry.CreatedAt = time.Now()
	f.entries[entry.RequestID] = append(f.entries[entry.RequestID], *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByRequest(_ context.Context, _ repository.Querier, requestID string) ([]domain.HistoryEntry, error) {
	return f.entries[requestID], nil
}

type fakeAppraisalRepo struct {
	rows map[string][]domain.Appraisal
	seq  int
}

func newFakeAppraisalRepo() *fakeAppraisalRepo {
	return &fakeAppraisalRepo{rows: make(map[string][]domain.Appraisal)}
}

func (f *fakeAppraisalRepo) ReplaceAll(_ context.Context, _ pgx.Tx, requestID string, appraisals []domain.Appraisal) error {
	for i := range appraisals {
		f.seq++
		appraisals[i].ID = fmt.Sprintf("app-%d", f.seq)
		appraisals[i].RequestID = requestID
		appraisals[i].CreatedAt = time.Now()
	}
	f.rows[requestID] = append([]domain.Appraisal(nil), appraisals...)
	return nil
}

func (f *fakeAppraisalRepo) ListByRequest(_ context.Context, _ repository.Querier, requestID string) ([]domain.Appraisal, error) {
	return f.rows[requestID], nil
}

func (f *fakeAppraisalRepo) SumAppraisedValue(_ context.Context, _ repository.Querier, requestID string) (int64, error) {
	return domain.SumAppraisedValue(f.rows[requestID]), nil
}

type fakeStoreRepo struct {
	stores map[string]*domain.Store
}

func newFakeStoreRepo(stores ...*domain.Store) *fakeStoreRepo {
	repo := &fakeStoreRepo{stores: make(map[string]*domain.Store)}
	for _, store := range stores {
		repo.stores[store.ID] = store
	}
	return repo
}

func (f *fakeStoreRepo) Create(_ context.Context, _ repository.Querier, store *domain.Store) error {
	f.stores[store.ID] = store
	return nil
}

func (f *fakeStoreRepo) Update(_ context.Context, _ repository.Querier, store *domain.Store) error {
	f.stores[store.ID] = store
	return nil
}

func (f *fakeStoreRepo) GetByID(_ context.Context, _ repository.Querier, id string) (*domain.Store, error) {
	store, ok := f.stores[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return store, nil
}

func (f *fakeStoreRepo) ListActive(_ context.Context, _ repository.Querier) ([]domain.Store, error) {
	var out []domain.Store
	for _, store := range f.stores {
		if store.IsActive {
			out = append(out, *store)
		}
	}
	return out, nil
}

type fakeStaffRepo struct {
	members map[string]*domain.StaffMember
}

func newFakeStaffRepo(members ...*domain.StaffMember) *fakeStaffRepo {
	repo := &fakeStaffRepo{members: make(map[string]*domain.StaffMember)}
	for _, member := range members {
		repo.members[member.ID] = member
	}
	return repo
}

func (f *fakeStaffRepo) Create(_ context.Context, _ repository.Querier, staff *domain.StaffMember) error {
	f.members[staff.ID] = staff
	return nil
}

func (f *fakeStaffRepo) Update(_ context.Context, _ repository.Querier, staff *domain.StaffMember) error {
	f.members[staff.ID] = staff
	return nil
}

func (f *fakeStaffRepo) GetByID(_ context.Context, _ repository.Querier, id string) (*domain.StaffMember, error) {
	member, ok := f.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return member, nil
}

func (f *fakeStaffRepo) GetByEmail(_ context.Context, _ repository.Querier, email string) (*domain.StaffMember, error) {
	for _, member := range f.members {
		if member.Email == email {
			return member, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeOutboxRepo struct {
	enqueued []events.Event
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, _ repository.Querier, event *events.Event) error {
	event.ID = fmt.Sprintf("evt-%d", len(f.enqueued)+1)
	event.Timestamp = time.Now()
	f.enqueued = append(f.enqueued, *event)
	return nil
}

func (f *fakeOutboxRepo) FetchPending(_ context.Context, _ repository.Querier, _ int) ([]events.OutboxRow, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, _ repository.Querier, _ string) error {
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, _ repository.Querier, _ string, _ string) error {
	return nil
}

type serviceFixture struct {
	svc        *RequestService
	requests   *fakeRequestRepo
	history    *fakeHistoryRepo
	appraisals *fakeAppraisalRepo
	outbox     *fakeOutboxRepo
}

func newFixture(t *testing.T, opts ...func(*RequestDependencies)) *serviceFixture {
	t.Helper()
	storeA := &domain.Store{ID: "store-a", Name: "Shinjuku", IsActive: true}
	storeClosed := &domain.Store{ID: "store-closed", Name: "Closed", IsActive: false}
	staff := &domain.StaffMember{ID: "staff-1", Name: "Tanaka", Role: domain.StaffRoleAdmin, Active: true}

	f := &serviceFixture{
		requests:   newFakeRequestRepo(),
		history:    newFakeHistoryRepo(),
		appraisals: newFakeAppraisalRepo(),
		outbox:     &fakeOutboxRepo{},
	}
	deps := RequestDependencies{
		Tx:            fakeTxRunner{},
		RequestRepo:   f.requests,
		HistoryRepo:   f.history,
		StoreRepo:     newFakeStoreRepo(storeA, storeClosed),
		StaffRepo:     newFakeStaffRepo(staff),
		OutboxRepo:    f.outbox,
		Aggregator:    NewAppraisalAggregator(f.appraisals),
		AppraisalRepo: f.appraisals,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc = NewRequestService(deps)
	return f
}

func guestCreateInput() CreateInput {
	email := "buyer@example.com"
	return CreateInput{
		CustomerName:  "Sato Hanako",
		CustomerEmail: &email,
		AuthMethod:    domain.AuthMethodGuest,
		Items: []domain.RequestItem{
			{Name: "Switch", Category: domain.CategoryGames, EstimatedValue: 1000},
			{Name: "PS5", Category: domain.CategoryGames, EstimatedValue: 2000},
		},
	}
}

func TestCreateGuestRequest(t *testing.T) {
	f := newFixture(t)

	req, err := f.svc.Create(context.Background(), guestCreateInput())
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusSubmitted, req.Status)
	assert.Equal(t, domain.PriorityNormal, req.Priority)
	assert.Regexp(t, domain.RequestNumberPattern, req.RequestNumber)
	assert.Equal(t, int64(3000), req.EstimatedTotalValue)
	assert.Equal(t, []domain.ItemCategory{domain.CategoryGames}, req.ItemCategories)

	require.NotNil(t, req.VerificationToken)
	assert.Len(t, *req.VerificationToken, 64)

	require.Len(t, f.outbox.enqueued, 1)
	assert.Equal(t, events.EventRequestCreated, f.outbox.enqueued[0].Type)
}

func TestCreateEmailRequestHasNoToken(t *testing.T) {
	f := newFixture(t)
	input := guestCreateInput()
	input.AuthMethod = domain.AuthMethodEmail

	req, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, req.VerificationToken)
}

func TestCreateRequestNumbersAreSequentialPerDay(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Create(context.Background(), guestCreateInput())
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), guestCreateInput())
	require.NoError(t, err)

	assert.NotEqual(t, first.RequestNumber, second.RequestNumber)
	assert.Equal(t, first.RequestNumber[:11], second.RequestNumber[:11])
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("missing name", func(t *testing.T) {
		input := guestCreateInput()
		input.CustomerName = "  "
		_, err := f.svc.Create(ctx, input)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("no items", func(t *testing.T) {
		input := guestCreateInput()
		input.Items = nil
		_, err := f.svc.Create(ctx, input)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("too many items", func(t *testing.T) {
		input := guestCreateInput()
		input.Items = make([]domain.RequestItem, domain.MaxRequestItems+1)
		for i := range input.Items {
			input.Items[i] = domain.RequestItem{Name: "x", Category: domain.CategoryOther}
		}
		_, err := f.svc.Create(ctx, input)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("invalid category", func(t *testing.T) {
		input := guestCreateInput()
		input.Items[0].Category = "vehicles"
		_, err := f.svc.Create(ctx, input)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("email method requires email", func(t *testing.T) {
		phone := "090-1234-5678"
		input := guestCreateInput()
		input.AuthMethod = domain.AuthMethodEmail
		input.CustomerEmail = nil
		input.CustomerPhone = &phone
		_, err := f.svc.Create(ctx, input)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("pickup date in the past", func(t *testing.T) {
		yesterday := time.Now().AddDate(0, 0, -2)
		input := guestCreateInput()
		input.PreferredPickupDate = &yesterday
		_, err := f.svc.Create(ctx, input)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("unknown store", func(t *testing.T) {
		storeID := "missing"
		input := guestCreateInput()
		input.PreferredStoreID = &storeID
		_, err := f.svc.Create(ctx, input)
		assert.Equal(t, "STORE_NOT_FOUND", apperrors.ToDomainError(err).Code)
	})

	t.Run("inactive store", func(t *testing.T) {
		storeID := "store-closed"
		input := guestCreateInput()
		input.PreferredStoreID = &storeID
		_, err := f.svc.Create(ctx, input)
		assert.Equal(t, "STORE_NOT_FOUND", apperrors.ToDomainError(err).Code)
	})
}

func TestUpdateStatusChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	reviewing := domain.RequestStatusReviewing
	view, err := f.svc.Update(ctx, admin, created.ID, UpdatePatch{Status: &reviewing})
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusReviewing, view.Request.Status)
	assert.Equal(t, int64(2), view.Request.Version)

	var changes []domain.HistoryEntry
	for _, entry := range view.Request.History {
		if entry.Type == domain.HistoryTypeStatusChange {
			changes = append(changes, entry)
		}
	}
	require.Len(t, changes, 1)
	assert.Equal(t, domain.RequestStatusSubmitted, *changes[0].OldStatus)
	assert.Equal(t, domain.RequestStatusReviewing, *changes[0].NewStatus)
	assert.Equal(t, "Tanaka", changes[0].ActorName)
}

func TestUpdateApprovedStampsReviewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	approved := domain.RequestStatusApproved
	view, err := f.svc.Update(ctx, admin, created.ID, UpdatePatch{Status: &approved})
	require.NoError(t, err)

	require.NotNil(t, view.Request.ReviewedBy)
	assert.Equal(t, "staff-1", *view.Request.ReviewedBy)
	assert.NotNil(t, view.Request.ReviewedAt)
}

func TestUpdateNoOpTouchesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	same := created.Status
	view, err := f.svc.Update(ctx, admin, created.ID, UpdatePatch{Status: &same})
	require.NoError(t, err)

	assert.Equal(t, created.Version, view.Request.Version)
	assert.Empty(t, view.Request.History)
	// The creation event is the only one ever enqueued.
	assert.Len(t, f.outbox.enqueued, 1)
}

func TestUpdateAppraisalsRecomputesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	first := UpdatePatch{Appraisals: []AppraisalInput{
		{ItemName: "Switch", ItemCondition: domain.ConditionA, AppraisedValue: 12000},
		{ItemName: "PS5", ItemCondition: domain.ConditionS, AppraisedValue: 30000},
	}}
	view, err := f.svc.Update(ctx, admin, created.ID, first)
	require.NoError(t, err)
	assert.Equal(t, int64(42000), view.TotalAppraisedValue)
	assert.Len(t, view.Appraisals, 2)

	// A resubmission replaces the previous set wholesale.
	second := UpdatePatch{Appraisals: []AppraisalInput{
		{ItemName: "Switch", ItemCondition: domain.ConditionB, AppraisedValue: 9000},
	}}
	view, err = f.svc.Update(ctx, admin, created.ID, second)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), view.TotalAppraisedValue)
	assert.Len(t, view.Appraisals, 1)

	var batches []domain.HistoryEntry
	for _, entry := range view.Request.History {
		if entry.Type == domain.HistoryTypeAppraisalCompleted {
			batches = append(batches, entry)
		}
	}
	require.Len(t, batches, 2)
	assert.Equal(t, 1, *batches[1].AppraisalCount)
	assert.Equal(t, int64(9000), *batches[1].TotalValue)
}

func TestUpdateInvalidAppraisalRejectsWholePatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	patch := UpdatePatch{Appraisals: []AppraisalInput{
		{ItemName: "Switch", ItemCondition: domain.ConditionA, AppraisedValue: 12000},
		{ItemName: "PS5", ItemCondition: "E", AppraisedValue: 30000},
	}}
	_, err = f.svc.Update(ctx, admin, created.ID, patch)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	rows, err := f.appraisals.ListByRequest(ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateStrictPolicyBlocksBackwardMoves(t *testing.T) {
	f := newFixture(t, func(deps *RequestDependencies) {
		deps.Policy = domain.StrictTransitionPolicy{}
	})
	ctx := context.Background()
	admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	approved := domain.RequestStatusApproved
	_, err = f.svc.Update(ctx, admin, created.ID, UpdatePatch{Status: &approved})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	reviewing := domain.RequestStatusReviewing
	_, err = f.svc.Update(ctx, admin, created.ID, UpdatePatch{Status: &reviewing})
	assert.NoError(t, err)
}

func TestUpdateConcurrentConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	f.requests.failUpdateWithConflict = true
	reviewing := domain.RequestStatusReviewing
	_, err = f.svc.Update(ctx, admin, created.ID, UpdatePatch{Status: &reviewing})
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestUpdateStoreScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	storeA := "store-a"
	input := guestCreateInput()
	input.PreferredStoreID = &storeA
	created, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	otherStore := "store-b"
	outsider := &domain.StaffCredential{ID: "staff-9", Role: domain.StaffRoleStoreStaff, StoreID: &otherStore}
	note := "checking in"
	_, err = f.svc.Update(ctx, outsider, created.ID, UpdatePatch{Note: &note})
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestDeleteGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	t.Run("non-admin forbidden", func(t *testing.T) {
		storeA := "store-a"
		staff := &domain.StaffCredential{ID: "staff-2", Role: domain.StaffRoleStoreStaff, StoreID: &storeA}
		err := f.svc.Delete(ctx, staff, created.ID)
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("completed requests are immutable", func(t *testing.T) {
		completed := domain.RequestStatusCompleted
		_, err := f.svc.Update(ctx, admin, created.ID, UpdatePatch{Status: &completed})
		require.NoError(t, err)

		err = f.svc.Delete(ctx, admin, created.ID)
		assert.Equal(t, "TERMINAL_STATE", apperrors.ToDomainError(err).Code)
	})

	t.Run("admin deletes non-terminal request", func(t *testing.T) {
		other, err := f.svc.Create(ctx, guestCreateInput())
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, admin, other.ID))

		_, err = f.svc.GetForStaff(ctx, admin, other.ID)
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

		last := f.outbox.enqueued[len(f.outbox.enqueued)-1]
		assert.Equal(t, events.EventRequestDeleted, last.Type)
	})
}

func TestGetForCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	t.Run("token proof", func(t *testing.T) {
		view, err := f.svc.GetForCustomer(ctx, created.ID, domain.CustomerProof{Token: created.VerificationToken})
		require.NoError(t, err)
		assert.Equal(t, created.ID, view.Request.ID)
	})

	t.Run("no proof", func(t *testing.T) {
		_, err := f.svc.GetForCustomer(ctx, created.ID, domain.CustomerProof{})
		assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
	})

	t.Run("wrong proof", func(t *testing.T) {
		bad := "nope"
		_, err := f.svc.GetForCustomer(ctx, created.ID, domain.CustomerProof{Token: &bad})
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})
}

func TestGetByNumberForCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	t.Run("resolves the natural key", func(t *testing.T) {
		view, err := f.svc.GetByNumberForCustomer(ctx, created.RequestNumber,
			domain.CustomerProof{Token: created.VerificationToken})
		require.NoError(t, err)
		assert.Equal(t, created.ID, view.Request.ID)
	})

	t.Run("malformed number fails before lookup", func(t *testing.T) {
		_, err := f.svc.GetByNumberForCustomer(ctx, "not-a-number",
			domain.CustomerProof{Token: created.VerificationToken})
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("unknown number", func(t *testing.T) {
		_, err := f.svc.GetByNumberForCustomer(ctx, "BR20200101-0001",
			domain.CustomerProof{Token: created.VerificationToken})
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})
}

func TestListStoreScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	storeA := "store-a"
	scoped := guestCreateInput()
	scoped.PreferredStoreID = &storeA
	_, err := f.svc.Create(ctx, scoped)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, guestCreateInput())
	require.NoError(t, err)

	t.Run("admin sees everything", func(t *testing.T) {
		admin := &domain.StaffCredential{ID: "staff-1", Role: domain.StaffRoleAdmin}
		rows, err := f.svc.List(ctx, admin, repository.RequestFilter{})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("store staff see only their store", func(t *testing.T) {
		staff := &domain.StaffCredential{ID: "staff-2", Role: domain.StaffRoleStoreStaff, StoreID: &storeA}
		rows, err := f.svc.List(ctx, staff, repository.RequestFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, storeA, *rows[0].PreferredStoreID)
	})

	t.Run("store staff without a store are forbidden", func(t *testing.T) {
		staff := &domain.StaffCredential{ID: "staff-3", Role: domain.StaffRoleStoreStaff}
		_, err := f.svc.List(ctx, staff, repository.RequestFilter{})
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		_, err := f.svc.List(ctx, nil, repository.RequestFilter{})
		assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
	})
}
