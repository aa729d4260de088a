package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/buyback-service/internal/domain"
	"github.com/spec-kit/buyback-service/internal/repository"
	apperrors "github.com/spec-kit/buyback-service/pkg/util/errorutil"
)

const credentialKey = "staff_credential"

// Middleware validates staff bearer tokens and loads the credential. Routes
// that accept either staff or customer callers use OptionalHandle so a
// missing header falls through to proof-of-ownership checks.
type Middleware struct {
	tokens *TokenManager
	staff  repository.StaffRepository
	db     repository.Querier
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, staff repository.StaffRepository, db repository.Querier) *Middleware {
	return &Middleware{tokens: tokens, staff: staff, db: db}
}

// Handle enforces staff authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	cred, err := m.decode(c)
	if err != nil {
		return err
	}
	if cred == nil {
		return apperrors.NewUnauthorized("missing authorization header")
	}
	c.Locals(credentialKey, cred)
	return c.Next()
}

// OptionalHandle loads a staff credential when one is presented but lets
// anonymous callers through.
func (m *Middleware) OptionalHandle(c *fiber.Ctx) error {
	cred, err := m.decode(c)
	if err != nil {
		return err
	}
	if cred != nil {
		c.Locals(credentialKey, cred)
	}
	return c.Next()
}

func (m *Middleware) decode(c *fiber.Ctx) (*domain.StaffCredential, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperrors.NewUnauthorized("invalid authorization header")
	}

	cred, err := m.tokens.Decode(parts[1])
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	// The token is self-contained, but the account must still exist and be
	// active at call time.
	staff, err := m.staff.GetByID(c.Context(), m.db, cred.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewUnauthorized("staff not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !staff.Active {
		return nil, apperrors.NewUnauthorized("staff account disabled")
	}
	return cred, nil
}

// CredentialFromContext retrieves the authenticated staff credential.
func CredentialFromContext(c *fiber.Ctx) (*domain.StaffCredential, bool) {
	val := c.Locals(credentialKey)
	if val == nil {
		return nil, false
	}
	cred, ok := val.(*domain.StaffCredential)
	return cred, ok
}
