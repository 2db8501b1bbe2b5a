package http

import (
	"net/http"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
)

// ShopHandler serves the caller's shop, its staff and staff invites.
type ShopHandler struct {
	Shops *service.ShopService
}

// HandleGet godoc
//
//	@Summary	Get shop
//	@Tags		Shop
//	@Produce	json
//	@Success	200	{object}	authsdk.Shop
//	@Failure	403	{object}	authsdk.ErrorResponse	"insufficient_permission"
//	@Security	BearerAuth
//	@Router		/v1/shop [get].
func (h *ShopHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	s, err := h.Shops.Get(r.Context(), u.ShopID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.ShopResponse(s))
}

// HandleUpdate godoc
//
//	@Summary	Update shop
//	@Tags		Shop
//	@Accept		json
//	@Produce	json
//	@Param		body	body		authsdk.ShopUpdate	true	"Fields to change"
//	@Success	200		{object}	authsdk.Shop
//	@Failure	403		{object}	authsdk.ErrorResponse			"insufficient_permission"
//	@Failure	422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security	BearerAuth
//	@Router		/v1/shop [patch].
func (h *ShopHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.ShopUpdate
	if !decode(w, r, &in) {
		return
	}
	s, err := h.Shops.Update(r.Context(), u.ShopID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.ShopResponse(s))
}

// HandleListStaff godoc
//
//	@Summary	List staff
//	@Tags		Shop
//	@Produce	json
//	@Success	200	{object}	authsdk.List[authsdk.StaffMember]
//	@Security	BearerAuth
//	@Router		/v1/staff [get].
func (h *ShopHandler) HandleListStaff(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	staff, err := h.Shops.ListStaff(r.Context(), u.ShopID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.StaffResponse(staff))
}

// HandleMintInvite godoc
//
//	@Summary		Invite staff
//	@Description	Mints a single-use invite for role. The token is only returned here.
//	@Description	Owners may invite any role but owner; admins only groomers and attendants.
//	@Tags			Shop
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.InviteRequest	true	"Role"
//	@Success		201		{object}	authsdk.Invite
//	@Failure		403		{object}	authsdk.ErrorResponse			"insufficient_permission"
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security		BearerAuth
//	@Router			/v1/staff/invites [post].
func (h *ShopHandler) HandleMintInvite(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.InviteRequest
	if !decode(w, r, &in) {
		return
	}
	inv, err := h.Shops.MintInvite(r.Context(), u, in.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, inv)
}

// HandleRedeemInvite godoc
//
//	@Summary		Redeem invite
//	@Description	Creates a confirmed staff account in the inviting shop.
//	@Tags			Shop
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RedeemInviteRequest	true	"Invite token and account"
//	@Success		201		{object}	authsdk.Identity
//	@Failure		400		{object}	authsdk.ErrorResponse			"invalid or expired link"
//	@Failure		409		{object}	authsdk.ErrorResponse			"email_taken"
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Router			/v1/staff/invites/redeem [post].
func (h *ShopHandler) HandleRedeemInvite(w http.ResponseWriter, r *http.Request) {
	var in authsdk.RedeemInviteRequest
	if !decode(w, r, &in) {
		return
	}
	user, err := h.Shops.RedeemInvite(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, service.IdentityResponse(user))
}
