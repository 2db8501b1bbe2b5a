package http

import (
	"net/http"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
)

type DashboardHandler struct {
	Dashboard *service.DashboardService
}

// HandleGet godoc
//
//	@Summary		Shop dashboard
//	@Description	Counts, today's and upcoming appointments, this month's completed revenue and the next appointments.
//	@Tags			Dashboard
//	@Produce		json
//	@Success		200	{object}	authsdk.Dashboard
//	@Security		BearerAuth
//	@Router			/v1/dashboard [get].
func (h *DashboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	d, err := h.Dashboard.Get(r.Context(), u.ShopID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.DashboardResponse(d))
}
