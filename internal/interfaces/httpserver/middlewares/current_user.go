package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fridgewiz/server/internal/domain/user"
	"fridgewiz/server/internal/infrastructure/auth"
	"fridgewiz/server/internal/utils/platformerrors"
)

// CurrentUserKey is the gin context key holding the resolved local user.
const CurrentUserKey = "current_user"

// RequireUser resolves the authenticated Clerk identity to a local user
// record, creating it on first contact. Must run after the auth middleware.
func RequireUser(users *user.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clerkID := auth.ClerkUserID(c)
		if clerkID == "" {
			platformerrors.WriteUnauthorized(c, "Authentication required")
			return
		}

		usr, err := users.Resolve(c.Request.Context(), clerkID)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}

		c.Set(CurrentUserKey, usr)
		c.Next()
	}
}

// CurrentUser returns the local user stored by RequireUser.
func CurrentUser(c *gin.Context) *user.User {
	if val, ok := c.Get(CurrentUserKey); ok {
		if usr, ok := val.(*user.User); ok {
			return usr
		}
	}
	return nil
}
