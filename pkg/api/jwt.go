package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// accountUserIDKey holds the token subject in the request locals
const accountUserIDKey = "account_userid"

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Scope string `json:"scope"`
}

func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// TokenValidator is satisfied by the auth0 validator
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// NewAuth0Validator builds a validator for tokens issued by domain for audience
func NewAuth0Validator(domain string, audience string) (TokenValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("setting up the jwt validator: %w", err)
	}

	return jwtValidator, nil
}

// EnsureValidToken rejects requests without a valid bearer token
func EnsureValidToken(jwtValidator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)

		jwtToken, found := strings.CutPrefix(authHeader, "Bearer ")
		if authHeader == "" || !found {
			c.Status(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{
				"success": false,
				"error":   "Authorization header is required",
			})
		}

		claimsI, err := jwtValidator.ValidateToken(c.UserContext(), jwtToken)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected auth token")

			c.Status(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{
				"success": false,
				"error":   "Invalid auth token",
			})
		}

		if claims, ok := claimsI.(*validator.ValidatedClaims); ok {
			c.Locals(accountUserIDKey, claims.RegisteredClaims.Subject)
		}

		return c.Next()
	}
}
