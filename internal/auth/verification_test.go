package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/buyback-service/internal/domain"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

func strptr(s string) *string { return &s }

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestAuthorizeStaff(t *testing.T) {
	storeA := "store-a"
	storeB := "store-b"
	req := &domain.BuybackRequest{ID: "req-1", PreferredStoreID: &storeA}

	t.Run("nil credential is unauthorized", func(t *testing.T) {
		err := AuthorizeStaff(nil, req)
		assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
	})

	t.Run("admin roles bypass store scoping", func(t *testing.T) {
		admin := &domain.StaffCredential{ID: "s1", Role: domain.StaffRoleAdmin}
		super := &domain.StaffCredential{ID: "s2", Role: domain.StaffRoleSuperAdmin, StoreID: &storeB}

		assert.NoError(t, AuthorizeStaff(admin, req))
		assert.NoError(t, AuthorizeStaff(super, req))
	})

	t.Run("store staff limited to own store", func(t *testing.T) {
		same := &domain.StaffCredential{ID: "s3", Role: domain.StaffRoleStoreStaff, StoreID: &storeA}
		other := &domain.StaffCredential{ID: "s4", Role: domain.StaffRoleStoreManager, StoreID: &storeB}
		unbound := &domain.StaffCredential{ID: "s5", Role: domain.StaffRoleStoreStaff}

		assert.NoError(t, AuthorizeStaff(same, req))
		assert.Equal(t, "FORBIDDEN", errCode(t, AuthorizeStaff(other, req)))
		assert.Equal(t, "FORBIDDEN", errCode(t, AuthorizeStaff(unbound, req)))
	})

	t.Run("store staff cannot reach unscoped requests", func(t *testing.T) {
		free := &domain.BuybackRequest{ID: "req-2"}
		scoped := &domain.StaffCredential{ID: "s6", Role: domain.StaffRoleStoreStaff, StoreID: &storeA}
		assert.Equal(t, "FORBIDDEN", errCode(t, AuthorizeStaff(scoped, free)))
	})

	t.Run("required roles gate the operation", func(t *testing.T) {
		manager := &domain.StaffCredential{ID: "s7", Role: domain.StaffRoleStoreManager, StoreID: &storeA}
		err := AuthorizeStaff(manager, req, domain.StaffRoleAdmin, domain.StaffRoleSuperAdmin)
		assert.Equal(t, "FORBIDDEN", errCode(t, err))

		admin := &domain.StaffCredential{ID: "s8", Role: domain.StaffRoleAdmin}
		assert.NoError(t, AuthorizeStaff(admin, req, domain.StaffRoleAdmin))
	})
}

func TestAuthorizeCustomer(t *testing.T) {
	token := "a3f8c9d2e1b04567a3f8c9d2e1b04567"
	email := "buyer@example.com"
	phone := "090-1234-5678"
	req := &domain.BuybackRequest{
		ID:                "req-1",
		VerificationToken: &token,
		CustomerEmail:     &email,
		CustomerPhone:     &phone,
	}

	t.Run("missing proof is unauthorized", func(t *testing.T) {
		err := AuthorizeCustomer(domain.CustomerProof{}, req)
		assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

		empty := domain.CustomerProof{Token: strptr(""), Email: strptr("")}
		assert.Equal(t, "UNAUTHORIZED", errCode(t, AuthorizeCustomer(empty, req)))
	})

	t.Run("matching token passes", func(t *testing.T) {
		assert.NoError(t, AuthorizeCustomer(domain.CustomerProof{Token: &token}, req))
	})

	t.Run("wrong token is forbidden even when email would match", func(t *testing.T) {
		proof := domain.CustomerProof{Token: strptr("wrong"), Email: &email}
		assert.Equal(t, "FORBIDDEN", errCode(t, AuthorizeCustomer(proof, req)))
	})

	t.Run("token against a request without one is forbidden", func(t *testing.T) {
		noToken := &domain.BuybackRequest{ID: "req-2", CustomerEmail: &email}
		proof := domain.CustomerProof{Token: &token}
		assert.Equal(t, "FORBIDDEN", errCode(t, AuthorizeCustomer(proof, noToken)))
	})

	t.Run("email match is case-insensitive and trimmed", func(t *testing.T) {
		proof := domain.CustomerProof{Email: strptr("  Buyer@Example.COM ")}
		assert.NoError(t, AuthorizeCustomer(proof, req))

		wrong := domain.CustomerProof{Email: strptr("other@example.com")}
		assert.Equal(t, "FORBIDDEN", errCode(t, AuthorizeCustomer(wrong, req)))
	})

	t.Run("phone match is verbatim", func(t *testing.T) {
		assert.NoError(t, AuthorizeCustomer(domain.CustomerProof{Phone: &phone}, req))

		spaced := domain.CustomerProof{Phone: strptr("09012345678")}
		assert.Equal(t, "FORBIDDEN", errCode(t, AuthorizeCustomer(spaced, req)))
	})
}

func TestGenerateVerificationToken(t *testing.T) {
	first, err := GenerateVerificationToken()
	require.NoError(t, err)
	second, err := GenerateVerificationToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", first)
	assert.NotEqual(t, first, second)
}
