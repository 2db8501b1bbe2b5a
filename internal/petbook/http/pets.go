package http

import (
	"net/http"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
)

// PetsHandler serves pets and their photos.
type PetsHandler struct {
	Pets *service.PetService
}

// HandleList godoc
//
//	@Summary	List pets
//	@Tags		Pets
//	@Produce	json
//	@Param		client_id	query		string	false	"Only pets of this client"
//	@Success	200			{object}	authsdk.List[authsdk.Pet]
//	@Security	BearerAuth
//	@Router		/v1/pets [get].
func (h *PetsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	list, err := h.Pets.List(r.Context(), u.ShopID, r.URL.Query().Get("client_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.PetsResponse(list))
}

// HandleGet godoc
//
//	@Summary	Get pet
//	@Tags		Pets
//	@Produce	json
//	@Param		id	path		string	true	"Pet ID"
//	@Success	200	{object}	authsdk.Pet
//	@Failure	404	{object}	authsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/v1/pets/{id} [get].
func (h *PetsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	p, err := h.Pets.Get(r.Context(), u.ShopID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.PetResponse(p))
}

// HandleCreate godoc
//
//	@Summary	Create pet
//	@Tags		Pets
//	@Accept		json
//	@Produce	json
//	@Param		body	body		authsdk.PetInput	true	"Pet"
//	@Success	201		{object}	authsdk.Pet
//	@Failure	422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security	BearerAuth
//	@Router		/v1/pets [post].
func (h *PetsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.PetInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Pets.Create(r.Context(), u.ShopID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, service.PetResponse(p))
}

// HandleUpdate godoc
//
//	@Summary		Update pet
//	@Description	client_id is ignored: a pet cannot move to another owner.
//	@Tags			Pets
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Pet ID"
//	@Param			body	body		authsdk.PetInput	true	"Pet"
//	@Success		200		{object}	authsdk.Pet
//	@Failure		404		{object}	authsdk.ErrorResponse			"not_found"
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security		BearerAuth
//	@Router			/v1/pets/{id} [put].
func (h *PetsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.PetInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Pets.Update(r.Context(), u.ShopID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.PetResponse(p))
}

// HandleDelete godoc
//
//	@Summary	Delete pet
//	@Tags		Pets
//	@Param		id	path	string	true	"Pet ID"
//	@Success	204
//	@Failure	404	{object}	authsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/v1/pets/{id} [delete].
func (h *PetsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	if err := h.Pets.Delete(r.Context(), u.ShopID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePhotoUpload godoc
//
//	@Summary		Pet photo upload URL
//	@Description	Returns a presigned PUT URL. The client uploads the image directly to object storage.
//	@Tags			Pets
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Pet ID"
//	@Param			body	body		authsdk.PhotoUploadRequest	true	"image/jpeg, image/png or image/webp"
//	@Success		200		{object}	authsdk.PhotoURL
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Failure		503		{object}	authsdk.ErrorResponse			"object storage not configured"
//	@Security		BearerAuth
//	@Router			/v1/pets/{id}/photo [post].
func (h *PetsHandler) HandlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.PhotoUploadRequest
	if !decode(w, r, &in) {
		return
	}
	url, err := h.Pets.PhotoUploadURL(r.Context(), u.ShopID, r.PathValue("id"), in.ContentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, url)
}

// HandlePhotoDownload godoc
//
//	@Summary	Pet photo URL
//	@Tags		Pets
//	@Produce	json
//	@Param		id	path		string	true	"Pet ID"
//	@Success	200	{object}	authsdk.PhotoURL
//	@Failure	404	{object}	authsdk.ErrorResponse	"pet or photo not found"
//	@Failure	503	{object}	authsdk.ErrorResponse	"object storage not configured"
//	@Security	BearerAuth
//	@Router		/v1/pets/{id}/photo [get].
func (h *PetsHandler) HandlePhotoDownload(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	url, err := h.Pets.PhotoDownloadURL(r.Context(), u.ShopID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, url)
}
