package handler

import (
	"github.com/gin-gonic/gin"

	"boostgate/internal/adapter/http/dto"
	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
	"boostgate/pkg/response"
)

// CatalogHandler serves the live, retail-priced provider catalogs.
type CatalogHandler struct {
	catalog ports.CatalogService
	gateway ports.ProviderGateway
}

func NewCatalogHandler(catalog ports.CatalogService, gateway ports.ProviderGateway) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, gateway: gateway}
}

func (h *CatalogHandler) ListProviders(c *gin.Context) {
	response.OK(c, gin.H{"providers": h.gateway.Providers()})
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalog.ListServices(c.Request.Context(), c.Param("provider"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"services": dto.NewServiceListResponse(services)})
}

// Quote prices a service for a concrete quantity. The customer sees here
// the exact number settlement will later debit.
func (h *CatalogHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation("provider, service_id and quantity are required"))
		return
	}

	svc, err := h.catalog.Lookup(c.Request.Context(), req.Provider, req.ServiceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	quote, err := h.catalog.Quote(c.Request.Context(), svc, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewQuoteResponse(req.Provider, req.ServiceID, req.Quantity, quote))
}
