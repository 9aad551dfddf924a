package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cloudstage/internal/audit/domain"
	"github.com/smallbiznis/cloudstage/internal/authorization"
	"go.uber.org/zap"
)

type rejectEventRequest struct {
	Reason string `json:"reason"`
}

// ApproveEvent approves the event and then notifies followers. A failed
// fan-out does not undo the approval; it is reported beside the event.
func (s *Server) ApproveEvent(c *gin.Context) {
	ctx := c.Request.Context()

	event, err := s.events.Approve(ctx, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, auditdomain.Entry{
		Action:     authorization.ActionEventApprove,
		TargetType: authorization.ObjectEvent,
		TargetID:   event.ID,
	})

	resp := gin.H{"data": event}
	result, err := s.notifications.NotifyFollowers(ctx, event.ID)
	if err != nil {
		s.log.Error("approval fan-out failed", zap.String("event_id", event.ID), zap.Error(err))
		_, payload := mapError(err)
		resp["notification_error"] = payload.Type
	} else {
		resp["notification"] = result
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) RejectEvent(c *gin.Context) {
	var req rejectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	event, err := s.events.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, auditdomain.Entry{
		Action:     authorization.ActionEventReject,
		TargetType: authorization.ObjectEvent,
		TargetID:   event.ID,
		Metadata:   map[string]any{"reason": req.Reason},
	})

	c.JSON(http.StatusOK, gin.H{"data": event})
}

func (s *Server) NotifyEvent(c *gin.Context) {
	result, err := s.notifications.NotifyFollowers(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, auditdomain.Entry{
		Action:     authorization.ActionEventNotify,
		TargetType: authorization.ObjectEvent,
		TargetID:   result.EventID,
		Metadata:   map[string]any{"tokens": result.Tokens, "success": result.SuccessCount, "failure": result.FailureCount},
	})

	c.JSON(http.StatusOK, gin.H{"data": result})
}
