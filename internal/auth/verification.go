package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/spec-kit/buyback-service/internal/domain"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

// AuthorizeStaff applies the role-by-scope permission policy for a request.
// Admin roles are unrestricted; store-scoped roles may only touch requests
// whose preferred store matches their own. requiredRoles, when non-empty,
// further restricts which roles may perform the operation at all.
func AuthorizeStaff(caller *domain.StaffCredential, req *domain.BuybackRequest, requiredRoles ...domain.StaffRole) error {
	if caller == nil {
		return apperrors.NewUnauthorized("staff credential required")
	}
	if len(requiredRoles) > 0 {
		allowed := false
		for _, role := range requiredRoles {
			if caller.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperrors.NewForbidden("insufficient role")
		}
	}
	if caller.Role.IsAdmin() {
		return nil
	}
	if !caller.Role.IsStoreScoped() {
		return apperrors.NewForbidden("role has no request access")
	}
	if caller.StoreID == nil || req.PreferredStoreID == nil || *caller.StoreID != *req.PreferredStoreID {
		return apperrors.NewForbidden("request belongs to another store")
	}
	return nil
}

// AuthorizeCustomer checks a proof-of-ownership against the stored request.
// Token comparison is constant-time; a present but non-matching proof is
// FORBIDDEN rather than UNAUTHORIZED so the response does not reveal which
// proof type would have worked.
func AuthorizeCustomer(proof domain.CustomerProof, req *domain.BuybackRequest) error {
	if proof.Empty() {
		return apperrors.NewUnauthorized("proof of ownership required")
	}

	if proof.Token != nil && *proof.Token != "" {
		if req.VerificationToken != nil &&
			subtle.ConstantTimeCompare([]byte(*proof.Token), []byte(*req.VerificationToken)) == 1 {
			return nil
		}
		return apperrors.NewForbidden("proof does not match this request")
	}
	if proof.Email != nil && *proof.Email != "" {
		if req.CustomerEmail != nil && strings.EqualFold(strings.TrimSpace(*proof.Email), *req.CustomerEmail) {
			return nil
		}
		return apperrors.NewForbidden("proof does not match this request")
	}
	if proof.Phone != nil && *proof.Phone != "" {
		if req.CustomerPhone != nil && *proof.Phone == *req.CustomerPhone {
			return nil
		}
		return apperrors.NewForbidden("proof does not match this request")
	}
	return apperrors.NewUnauthorized("proof of ownership required")
}
