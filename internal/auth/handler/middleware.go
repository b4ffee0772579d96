package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"session-service/internal/audit"
	"session-service/internal/auth/service"
	"session-service/internal/obs"
	"session-service/internal/token"
)

const (
	ctxClaimsKey = "auth.claims"
	ctxUserKey   = "auth.user"
)

// ClientIP tags the request context with the caller's IP so audit events can
// attribute actions without the services knowing about HTTP.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth validates the bearer token and loads the subject's user record
// into the context. Failure taxonomy maps to distinct 401 bodies, except that
// a deleted subject reads exactly like a revoked token so the response never
// reveals whether an account exists.
func RequireAuth(tokens *token.Provider, users service.UserRepo, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			obs.ValidationsTotal.WithLabelValues(obs.ValidationOutcomeMalformed).Inc()
			unauthorized(c, "Could not validate credentials")
			return
		}

		claims, err := tokens.Validate(c.Request.Context(), raw, time.Now().UTC())
		if err != nil {
			switch {
			case errors.Is(err, token.ErrExpired):
				obs.ValidationsTotal.WithLabelValues(obs.ValidationOutcomeExpired).Inc()
				unauthorized(c, "Token has expired")
			case errors.Is(err, token.ErrRevoked), errors.Is(err, token.ErrUnknownSubject):
				obs.ValidationsTotal.WithLabelValues(obs.ValidationOutcomeRevoked).Inc()
				unauthorized(c, "Token has been revoked")
			case errors.Is(err, token.ErrMalformed):
				obs.ValidationsTotal.WithLabelValues(obs.ValidationOutcomeMalformed).Inc()
				unauthorized(c, "Could not validate credentials")
			default:
				obs.ValidationsTotal.WithLabelValues(obs.ValidationOutcomeError).Inc()
				log.Error("token validation failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
			}
			return
		}

		u, err := users.GetByUsername(c.Request.Context(), claims.Subject)
		if err != nil || u == nil {
			obs.ValidationsTotal.WithLabelValues(obs.ValidationOutcomeError).Inc()
			if err != nil {
				log.Error("subject lookup failed", zap.Error(err))
			}
			unauthorized(c, "Token has been revoked")
			return
		}

		obs.ValidationsTotal.WithLabelValues(obs.ValidationOutcomeValid).Inc()
		c.Set(ctxClaimsKey, claims)
		c.Set(ctxUserKey, u)
		c.Next()
	}
}

// CurrentClaims returns the validated claims stored by RequireAuth.
func CurrentClaims(c *gin.Context) (*token.Claims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.Claims)
	return claims, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
