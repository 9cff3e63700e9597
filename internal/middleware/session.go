package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trainer-discovery-api/internal/service"
	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
	"github.com/noah-isme/trainer-discovery-api/pkg/response"
)

// SessionHeader carries the signed discovery session handle.
const SessionHeader = "X-Discovery-Session"

// ContextSessionKey is the gin context key storing the verified session id.
const ContextSessionKey = "discoverySession"

// SessionHandle requires a handle bound to the session named by the :id route parameter.
func SessionHandle(handles *service.SessionHandleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(SessionHeader))
		if token == "" {
			header := c.GetHeader("Authorization")
			if header == "" {
				response.Error(c, appErrors.Clone(appErrors.ErrInvalidSessionKey, "missing discovery session handle"))
				c.Abort()
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Error(c, appErrors.Clone(appErrors.ErrInvalidSessionKey, "invalid authorization header"))
				c.Abort()
				return
			}
			token = strings.TrimSpace(parts[1])
		}

		sessionID, err := handles.Validate(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if id := c.Param("id"); id != "" && id != sessionID {
			response.Error(c, appErrors.Clone(appErrors.ErrInvalidSessionKey, "handle does not belong to this session"))
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, sessionID)
		c.Next()
	}
}
