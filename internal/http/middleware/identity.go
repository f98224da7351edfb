package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/speechsmith/speechsmith-backend/internal/http/response"
	"github.com/speechsmith/speechsmith-backend/internal/platform/ctxutil"
)

const (
	headerUserID    = "X-User-Id"
	headerSessionID = "X-Session-Id"
)

// RequireIdentity parses the caller identity stamped by the trusted gateway.
// There is no token verification here: the gateway terminates auth and this
// service only runs behind it.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerUserID))
		if raw == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing %s header", headerUserID))
			c.Abort()
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("invalid %s header", headerUserID))
			c.Abort()
			return
		}

		sessionID := uuid.Nil
		if rawSession := strings.TrimSpace(c.GetHeader(headerSessionID)); rawSession != "" {
			if parsed, err := uuid.Parse(rawSession); err == nil {
				sessionID = parsed
			}
		}

		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID:    userID,
			SessionID: sessionID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
