package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
)

// AuthMiddleware validates the bearer token, loads the user and resolves the
// customers they may see. Requests without a token pass through anonymous;
// RequireAuth rejects them on protected routes.
func AuthMiddleware(env *config.Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, err := utils.JwtValidate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := c.Request.Context()
		user, err := models.GetUser(ctx, env.DB, claims.ID)
		if err != nil || !utils.DereferencePtr(user.IsActive, false) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		scope, err := models.ResolveAccessScope(ctx, env.DB, env.Cache, user)
		if err != nil {
			config.LogError(env.Logger, "middlewares", "AuthMiddleware", "resolve access scope", user.ID, err)
			AbortWithError(c, err)
			return
		}

		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.Username)
		ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
		ctx = models.SetAccessScopeInContext(ctx, scope)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := models.AccessScopeFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireAdmin limits a route to admin-class roles.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c.Request.Context())
		if !models.UserRole(role).IsAdminClass() {
			AbortWithError(c, utils.NewAccessDeniedError("route", c.FullPath(), "requires an admin role"))
			return
		}
		c.Next()
	}
}

// Scope returns the caller's resolved access scope. RequireAuth guarantees it
// is present on protected routes.
func Scope(c *gin.Context) models.AccessScope {
	scope, _ := models.AccessScopeFromContext(c.Request.Context())
	return scope
}
