package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
)

// ClientsHandler serves the shop's customers (pet owners).
type ClientsHandler struct {
	Clients *service.ClientService
}

// HandleList godoc
//
//	@Summary	List clients
//	@Tags		Clients
//	@Produce	json
//	@Param		q	query		string	false	"Search by name, e-mail or phone"
//	@Success	200	{object}	authsdk.List[authsdk.Customer]
//	@Security	BearerAuth
//	@Router		/v1/clients [get].
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	list, err := h.Clients.List(r.Context(), u.ShopID, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.CustomersResponse(list))
}

// HandleGet godoc
//
//	@Summary	Get client
//	@Tags		Clients
//	@Produce	json
//	@Param		id	path		string	true	"Client ID"
//	@Success	200	{object}	authsdk.Customer
//	@Failure	404	{object}	authsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/v1/clients/{id} [get].
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	c, err := h.Clients.Get(r.Context(), u.ShopID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.CustomerResponse(c))
}

// HandleCreate godoc
//
//	@Summary	Create client
//	@Tags		Clients
//	@Accept		json
//	@Produce	json
//	@Param		body	body		authsdk.CustomerInput	true	"Client"
//	@Success	201		{object}	authsdk.Customer
//	@Failure	422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security	BearerAuth
//	@Router		/v1/clients [post].
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.CustomerInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Clients.Create(r.Context(), u.ShopID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, service.CustomerResponse(c))
}

// HandleUpdate godoc
//
//	@Summary	Update client
//	@Tags		Clients
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Client ID"
//	@Param		body	body		authsdk.CustomerInput	true	"Client"
//	@Success	200		{object}	authsdk.Customer
//	@Failure	404		{object}	authsdk.ErrorResponse			"not_found"
//	@Failure	422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security	BearerAuth
//	@Router		/v1/clients/{id} [put].
func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.CustomerInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.Clients.Update(r.Context(), u.ShopID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.CustomerResponse(c))
}

// HandleDelete godoc
//
//	@Summary		Delete client
//	@Description	Deletes the client together with their pets and appointments.
//	@Tags			Clients
//	@Param			id	path	string	true	"Client ID"
//	@Success		204
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Security		BearerAuth
//	@Router			/v1/clients/{id} [delete].
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	if err := h.Clients.Delete(r.Context(), u.ShopID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
