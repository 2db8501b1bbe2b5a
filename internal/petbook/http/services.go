package http

import (
	"net/http"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
)

// ServicesHandler serves the shop's catalogue of bookable services.
type ServicesHandler struct {
	Catalog *service.CatalogService
}

// HandleList godoc
//
//	@Summary	List services
//	@Tags		Services
//	@Produce	json
//	@Success	200	{object}	authsdk.List[authsdk.Service]
//	@Security	BearerAuth
//	@Router		/v1/services [get].
func (h *ServicesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	list, err := h.Catalog.List(r.Context(), u.ShopID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.ServicesResponse(list))
}

// HandleCreate godoc
//
//	@Summary	Create service
//	@Tags		Services
//	@Accept		json
//	@Produce	json
//	@Param		body	body		authsdk.ServiceInput	true	"Service"
//	@Success	201		{object}	authsdk.Service
//	@Failure	422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security	BearerAuth
//	@Router		/v1/services [post].
func (h *ServicesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.ServiceInput
	if !decode(w, r, &in) {
		return
	}
	s, err := h.Catalog.Create(r.Context(), u.ShopID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, service.ServiceResponse(s))
}

// HandleUpdate godoc
//
//	@Summary	Update service
//	@Tags		Services
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Service ID"
//	@Param		body	body		authsdk.ServiceInput	true	"Service"
//	@Success	200		{object}	authsdk.Service
//	@Failure	404		{object}	authsdk.ErrorResponse			"not_found"
//	@Failure	422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security	BearerAuth
//	@Router		/v1/services/{id} [put].
func (h *ServicesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.ServiceInput
	if !decode(w, r, &in) {
		return
	}
	s, err := h.Catalog.Update(r.Context(), u.ShopID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.ServiceResponse(s))
}

// HandleDelete godoc
//
//	@Summary	Delete service
//	@Tags		Services
//	@Param		id	path	string	true	"Service ID"
//	@Success	204
//	@Failure	404	{object}	authsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/v1/services/{id} [delete].
func (h *ServicesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.Delete(r.Context(), u.ShopID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
