package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) authorizeAdminAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeAdminActionWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeAdminActionWithContext(c *gin.Context, object string, action string) error {
	role := strings.TrimSpace(c.GetString(contextAdminRoleKey))
	if role == "" {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	return s.authzSvc.Authorize(c.Request.Context(), role, strings.TrimSpace(object), strings.TrimSpace(action))
}
