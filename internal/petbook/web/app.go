package web

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
	"github.com/aussiebroadwan/petbook/pkg/session"
)

var (
	dashboardPerms = []rbac.Permission{rbac.ViewDashboard}
	settingsPerms  = []rbac.Permission{rbac.ManageSettings}
)

func (p *Pages) dashboard(w http.ResponseWriter, r *http.Request, st session.State) {
	if st.User.ShopID == "" {
		p.render(w, r, http.StatusForbidden, "forbidden", view{Title: "Sem permissão", User: st.User})
		return
	}
	d, err := p.Dashboard.Get(r.Context(), st.User.ShopID)
	if err != nil {
		_, msg, _ := formError(r, err)
		p.render(w, r, http.StatusInternalServerError, "dashboard", view{Title: "Painel", User: st.User, Error: msg})
		return
	}
	p.render(w, r, http.StatusOK, "dashboard", view{Title: "Painel", User: st.User, Data: d})
}

var settingsFields = []string{"name", "phone", "cnpj", "address"}

func (p *Pages) settings(w http.ResponseWriter, r *http.Request, st session.State) {
	if st.User.ShopID == "" {
		p.render(w, r, http.StatusForbidden, "forbidden", view{Title: "Sem permissão", User: st.User})
		return
	}
	shop, err := p.Shops.Get(r.Context(), st.User.ShopID)
	if err != nil {
		_, msg, _ := formError(r, err)
		p.render(w, r, http.StatusInternalServerError, "settings", view{Title: "Configurações", User: st.User, Error: msg})
		return
	}
	v := view{
		Title: "Configurações",
		User:  st.User,
		Form: map[string]string{
			"name":    shop.Name,
			"phone":   shop.Phone,
			"cnpj":    shop.CNPJ,
			"address": shop.Address,
		},
	}
	if r.URL.Query().Has("saved") {
		v.Notice = "Alterações salvas."
	}
	p.render(w, r, http.StatusOK, "settings", v)
}

func (p *Pages) saveSettings(w http.ResponseWriter, r *http.Request, st session.State) {
	if st.User.ShopID == "" {
		p.render(w, r, http.StatusForbidden, "forbidden", view{Title: "Sem permissão", User: st.User})
		return
	}
	field := func(name string) *string {
		v := strings.TrimSpace(r.PostFormValue(name))
		return &v
	}
	upd := authsdk.ShopUpdate{
		Name:    field("name"),
		Phone:   field("phone"),
		CNPJ:    field("cnpj"),
		Address: field("address"),
	}
	if _, err := p.Shops.Update(r.Context(), st.User.ShopID, upd); err != nil {
		status, msg, fields := formError(r, err)
		p.render(w, r, status, "settings", view{
			Title:  "Configurações",
			User:   st.User,
			Error:  msg,
			Fields: fields,
			Form:   formValues(r, settingsFields...),
		})
		return
	}
	http.Redirect(w, r, "/app/settings?saved=1", http.StatusSeeOther)
}
