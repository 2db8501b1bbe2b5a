package http

import (
	"net/http"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	Profiles *service.ProfileService
}

// HandleGet godoc
//
//	@Summary	Get own profile
//	@Tags		Profile
//	@Produce	json
//	@Success	200	{object}	authsdk.Profile
//	@Failure	404	{object}	authsdk.ErrorResponse	"no profile yet"
//	@Security	BearerAuth
//	@Router		/v1/profile [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Get(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.ProfileResponse(p))
}

// HandleUpdate godoc
//
//	@Summary	Update own profile
//	@Tags		Profile
//	@Accept		json
//	@Produce	json
//	@Param		body	body		authsdk.ProfileUpdate	true	"Fields to change"
//	@Success	200		{object}	authsdk.Profile
//	@Failure	422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security	BearerAuth
//	@Router		/v1/profile [patch].
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in authsdk.ProfileUpdate
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Profiles.Update(r.Context(), httpx.UserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.ProfileResponse(p))
}
