package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

func authGet[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.sendAuth(ctx, http.MethodGet, path, nil, &out, http.StatusOK)
	return out, err
}

func authSend[T any](ctx context.Context, c *Client, method, path string, body any, expected int) (T, error) {
	var out T
	err := c.sendAuth(ctx, method, path, body, &out, expected)
	return out, err
}

// ============================================================================
// Shop and staff
// ============================================================================

func (c *Client) GetShop(ctx context.Context) (Shop, error) {
	return authGet[Shop](ctx, c, "/v1/shop")
}

func (c *Client) UpdateShop(ctx context.Context, upd ShopUpdate) (Shop, error) {
	return authSend[Shop](ctx, c, http.MethodPatch, "/v1/shop", upd, http.StatusOK)
}

func (c *Client) ListStaff(ctx context.Context) ([]StaffMember, error) {
	l, err := authGet[List[StaffMember]](ctx, c, "/v1/staff")
	return l.Items, err
}

// CreateInvite mints a staff invite for role. The token is only shown once.
func (c *Client) CreateInvite(ctx context.Context, role string) (Invite, error) {
	return authSend[Invite](ctx, c, http.MethodPost, "/v1/staff/invites", InviteRequest{Role: role}, http.StatusCreated)
}

// ============================================================================
// Clients
// ============================================================================

func (c *Client) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	path := "/v1/clients"
	if search != "" {
		path += "?" + url.Values{"q": {search}}.Encode()
	}
	l, err := authGet[List[Customer]](ctx, c, path)
	return l.Items, err
}

func (c *Client) GetCustomer(ctx context.Context, id string) (Customer, error) {
	return authGet[Customer](ctx, c, "/v1/clients/"+url.PathEscape(id))
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	return authSend[Customer](ctx, c, http.MethodPost, "/v1/clients", in, http.StatusCreated)
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (Customer, error) {
	return authSend[Customer](ctx, c, http.MethodPut, "/v1/clients/"+url.PathEscape(id), in, http.StatusOK)
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.sendAuth(ctx, http.MethodDelete, "/v1/clients/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// ============================================================================
// Pets
// ============================================================================

// ListPets lists the shop's pets, optionally only those of one client.
func (c *Client) ListPets(ctx context.Context, clientID string) ([]Pet, error) {
	path := "/v1/pets"
	if clientID != "" {
		path += "?" + url.Values{"client_id": {clientID}}.Encode()
	}
	l, err := authGet[List[Pet]](ctx, c, path)
	return l.Items, err
}

func (c *Client) GetPet(ctx context.Context, id string) (Pet, error) {
	return authGet[Pet](ctx, c, "/v1/pets/"+url.PathEscape(id))
}

func (c *Client) CreatePet(ctx context.Context, in PetInput) (Pet, error) {
	return authSend[Pet](ctx, c, http.MethodPost, "/v1/pets", in, http.StatusCreated)
}

func (c *Client) UpdatePet(ctx context.Context, id string, in PetInput) (Pet, error) {
	return authSend[Pet](ctx, c, http.MethodPut, "/v1/pets/"+url.PathEscape(id), in, http.StatusOK)
}

func (c *Client) DeletePet(ctx context.Context, id string) error {
	return c.sendAuth(ctx, http.MethodDelete, "/v1/pets/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// PetPhotoUploadURL returns a presigned PUT URL for the pet's photo.
func (c *Client) PetPhotoUploadURL(ctx context.Context, petID, contentType string) (PhotoURL, error) {
	return authSend[PhotoURL](ctx, c, http.MethodPost, "/v1/pets/"+url.PathEscape(petID)+"/photo",
		PhotoUploadRequest{ContentType: contentType}, http.StatusOK)
}

// PetPhotoURL returns a presigned GET URL for the pet's photo.
func (c *Client) PetPhotoURL(ctx context.Context, petID string) (PhotoURL, error) {
	return authGet[PhotoURL](ctx, c, "/v1/pets/"+url.PathEscape(petID)+"/photo")
}

// ============================================================================
// Services
// ============================================================================

func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	l, err := authGet[List[Service]](ctx, c, "/v1/services")
	return l.Items, err
}

func (c *Client) CreateService(ctx context.Context, in ServiceInput) (Service, error) {
	return authSend[Service](ctx, c, http.MethodPost, "/v1/services", in, http.StatusCreated)
}

func (c *Client) UpdateService(ctx context.Context, id string, in ServiceInput) (Service, error) {
	return authSend[Service](ctx, c, http.MethodPut, "/v1/services/"+url.PathEscape(id), in, http.StatusOK)
}

func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.sendAuth(ctx, http.MethodDelete, "/v1/services/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// ============================================================================
// Appointments and dashboard
// ============================================================================

func (c *Client) ListAppointments(ctx context.Context, q AppointmentQuery) ([]Appointment, error) {
	v := url.Values{}
	switch {
	case q.Date != "":
		v.Set("date", q.Date)
	default:
		if !q.From.IsZero() {
			v.Set("from", q.From.Format(time.RFC3339))
		}
		if !q.To.IsZero() {
			v.Set("to", q.To.Format(time.RFC3339))
		}
	}
	path := "/v1/appointments"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	l, err := authGet[List[Appointment]](ctx, c, path)
	return l.Items, err
}

func (c *Client) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	return authGet[Appointment](ctx, c, "/v1/appointments/"+url.PathEscape(id))
}

func (c *Client) CreateAppointment(ctx context.Context, in AppointmentInput) (Appointment, error) {
	return authSend[Appointment](ctx, c, http.MethodPost, "/v1/appointments", in, http.StatusCreated)
}

func (c *Client) UpdateAppointmentStatus(ctx context.Context, id, status string) (Appointment, error) {
	return authSend[Appointment](ctx, c, http.MethodPatch, "/v1/appointments/"+url.PathEscape(id)+"/status",
		StatusUpdate{Status: status}, http.StatusOK)
}

func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	return authGet[Dashboard](ctx, c, "/v1/dashboard")
}
