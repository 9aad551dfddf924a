package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cloudstage/internal/payment/checkout"
)

func (s *Server) CreateCheckout(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	provider := c.Param("provider")
	c.Set("payment_provider", provider)

	handle, err := s.checkout.Initiate(c.Request.Context(), provider, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": handle})
}
