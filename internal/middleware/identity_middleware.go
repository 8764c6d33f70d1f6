package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"outfitJourney/business/identity"
	"outfitJourney/domain"
	"outfitJourney/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	CookieUserID    = "user_id"
	CookieSessionID = "session_id"
	CookieBucket    = "bucket"

	ctxIdentity = "identity"
	ctxBucket   = "bucket"
)

// IdentityMiddleware resolves the caller from the user_id, session_id and
// bucket cookies. A valid bearer token overrides the user_id cookie; an
// invalid one is rejected. With an empty secret bearer tokens are ignored.
func IdentityMiddleware(jwtSecret string) echo.MiddlewareFunc {
	secret := []byte(jwtSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			memberID, err := memberFromCookie(c)
			if err != nil {
				return err
			}

			if len(secret) > 0 {
				if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
					tokenParts := strings.Split(authHeader, " ")
					if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
						return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
					}

					uid, err := ParseMemberToken(secret, tokenParts[1])
					if err != nil {
						logger.Warn("rejected bearer token", err)
						return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
					}
					memberID = &uid
				}
			}

			id, err := identity.Resolve(memberID, cookieValue(c, CookieSessionID))
			if err != nil {
				return err
			}

			c.Set(ctxIdentity, id)
			if bucket := cookieValue(c, CookieBucket); bucket != "" {
				c.Set(ctxBucket, &bucket)
			}

			return next(c)
		}
	}
}

// IdentityFrom returns the identity resolved by IdentityMiddleware.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(ctxIdentity).(domain.Identity)
	return id, ok
}

// BucketFrom returns the bucket cookie, nil when absent.
func BucketFrom(c echo.Context) *string {
	bucket, _ := c.Get(ctxBucket).(*string)
	return bucket
}

func memberFromCookie(c echo.Context) (*uint64, error) {
	raw := cookieValue(c, CookieUserID)
	if raw == "" {
		return nil, nil
	}

	uid, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: user_id cookie %q", domain.ErrInvalidIdentity, raw)
	}
	return &uid, nil
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
