package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cloudstage/internal/audit/domain"
	"go.uber.org/zap"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	if s.audits == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req auditdomain.ListAuditLogRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.audits.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// recordAudit never fails the request; the action has already happened.
func (s *Server) recordAudit(c *gin.Context, entry auditdomain.Entry) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Record(c.Request.Context(), entry); err != nil {
		s.log.Warn("audit log write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
