package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/store"
)

// Auth checks for a valid Bearer token in the Authorization header, first
// against the static keys from config, then against hashed keys in the
// database.
func Auth(repo store.Repository, staticKeys []string) gin.HandlerFunc {
	staticMap := make(map[string]bool)
	for _, k := range staticKeys {
		staticMap[k] = true
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				domain.New(http.StatusUnauthorized, "Unauthorized", "Missing Authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				domain.New(http.StatusUnauthorized, "Unauthorized", "Invalid Authorization header format"))
			return
		}

		token := parts[1]

		if staticMap[token] {
			ctx := context.WithValue(c.Request.Context(), store.ContextKeyActor, "static-key")
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		hash := sha256.Sum256([]byte(token))
		hashedHex := hex.EncodeToString(hash[:])

		key, err := repo.APIKeys().GetByHash(c.Request.Context(), hashedHex)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				domain.New(http.StatusUnauthorized, "Unauthorized", "Invalid API Key"))
			return
		}

		// Inject key into context for downstream use (audit trail)
		ctx := context.WithValue(c.Request.Context(), store.ContextKeyAPIKey, key)
		ctx = context.WithValue(ctx, store.ContextKeyActor, key.Name)
		c.Request = c.Request.WithContext(ctx)

		// Update last used timestamp (async)
		go func() {
			_ = repo.APIKeys().UpdateUsage(context.Background(), key.ID)
		}()

		c.Next()
	}
}

// Actor returns the identity attached by Auth, or "system".
func Actor(c *gin.Context) string {
	if actor, ok := c.Request.Context().Value(store.ContextKeyActor).(string); ok && actor != "" {
		return actor
	}
	return "system"
}
