package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cloudstage/internal/audit/domain"
	"github.com/smallbiznis/cloudstage/internal/authorization"
	reconciliationdomain "github.com/smallbiznis/cloudstage/internal/reconciliation/domain"
)

func (s *Server) ListReconciliations(c *gin.Context) {
	entries, err := s.reconciliations.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// ReplayReconciliation answers 200 either way; a failed replay returns the
// entry with its bumped attempt count and last error.
func (s *Server) ReplayReconciliation(c *gin.Context) {
	entry, err := s.reconciliations.Replay(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, reconciliationdomain.ErrReplayFailed) {
		AbortWithError(c, err)
		return
	}
	resolved := entry.Status == reconciliationdomain.StatusResolved
	s.recordAudit(c, auditdomain.Entry{
		Action:     authorization.ActionReconciliationReplay,
		TargetType: authorization.ObjectReconciliation,
		TargetID:   entry.ID.String(),
		Metadata:   map[string]any{"payment_id": entry.PaymentID, "resolved": resolved, "attempts": entry.Attempts},
	})

	c.JSON(http.StatusOK, gin.H{
		"data":     entry,
		"resolved": resolved,
	})
}
