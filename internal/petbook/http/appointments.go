package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
	"github.com/aussiebroadwan/petbook/pkg/validation"
)

// AppointmentsHandler serves the agenda.
type AppointmentsHandler struct {
	Appointments *service.AppointmentService
}

// HandleList godoc
//
//	@Summary		List appointments
//	@Description	Without filters the next seven days starting today are returned.
//	@Tags			Appointments
//	@Produce		json
//	@Param			date	query		string	false	"Single day, YYYY-MM-DD"
//	@Param			from	query		string	false	"Range start, RFC 3339"
//	@Param			to		query		string	false	"Range end, RFC 3339"
//	@Success		200		{object}	authsdk.List[authsdk.Appointment]
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security		BearerAuth
//	@Router			/v1/appointments [get].
func (h *AppointmentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	q, err := appointmentQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.Appointments.List(r.Context(), u.ShopID, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.AppointmentsResponse(list))
}

func appointmentQuery(r *http.Request) (authsdk.AppointmentQuery, error) {
	v := r.URL.Query()
	q := authsdk.AppointmentQuery{Date: v.Get("date")}

	var errs validation.Errors
	parse := func(field string, dst *time.Time) {
		raw := v.Get(field)
		if raw == "" {
			return
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errs.Add(field, "data inválida")
			return
		}
		*dst = t
	}
	parse("from", &q.From)
	parse("to", &q.To)
	return q, errs.Err()
}

// HandleGet godoc
//
//	@Summary	Get appointment
//	@Tags		Appointments
//	@Produce	json
//	@Param		id	path		string	true	"Appointment ID"
//	@Success	200	{object}	authsdk.Appointment
//	@Failure	404	{object}	authsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/v1/appointments/{id} [get].
func (h *AppointmentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	a, err := h.Appointments.Get(r.Context(), u.ShopID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.AppointmentResponse(a))
}

// HandleCreate godoc
//
//	@Summary		Book appointment
//	@Description	price_cents defaults to the service price. Inactive services cannot be booked.
//	@Tags			Appointments
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.AppointmentInput	true	"Appointment"
//	@Success		201		{object}	authsdk.Appointment
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"field errors"
//	@Security		BearerAuth
//	@Router			/v1/appointments [post].
func (h *AppointmentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.AppointmentInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.Appointments.Create(r.Context(), u.ShopID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, service.AppointmentResponse(a))
}

// HandleUpdateStatus godoc
//
//	@Summary		Change appointment status
//	@Description	scheduled → confirmed → in_progress → completed. Any non-terminal appointment may be cancelled.
//	@Tags			Appointments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Appointment ID"
//	@Param			body	body		authsdk.StatusUpdate	true	"New status"
//	@Success		200		{object}	authsdk.Appointment
//	@Failure		404		{object}	authsdk.ErrorResponse			"not_found"
//	@Failure		409		{object}	authsdk.ErrorResponse			"transition not allowed"
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"unknown status"
//	@Security		BearerAuth
//	@Router			/v1/appointments/{id}/status [patch].
func (h *AppointmentsHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := shopOf(w, r)
	if !ok {
		return
	}
	var in authsdk.StatusUpdate
	if !decode(w, r, &in) {
		return
	}
	a, err := h.Appointments.UpdateStatus(r.Context(), u.ShopID, r.PathValue("id"), in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, service.AppointmentResponse(a))
}
