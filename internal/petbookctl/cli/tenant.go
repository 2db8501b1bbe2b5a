package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
	"github.com/aussiebroadwan/petbook/pkg/rbac"
)

func (e *env) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the shop summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.require(cmd.Context(), rbac.ViewDashboard); err != nil {
				return err
			}
			d, err := e.client.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return e.show(d, "", func(w io.Writer) {
				fmt.Fprintf(w, "Clientes:\t%d\n", d.Clients)
				fmt.Fprintf(w, "Pets:\t%d\n", d.Pets)
				fmt.Fprintf(w, "Agendamentos hoje:\t%d\n", d.AppointmentsToday)
				fmt.Fprintf(w, "Próximos agendamentos:\t%d\n", d.UpcomingAppointments)
				fmt.Fprintf(w, "Faturamento do mês:\t%s\n", formatMoney(d.RevenueMonthCents))
				for _, a := range d.Next {
					fmt.Fprintf(w, "  %s\t%s\t%s\n", formatTime(a.ScheduledAt), a.Status, a.ID)
				}
			})
		},
	}
}

func (e *env) shopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Show or change the shop",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the shop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.require(cmd.Context(), rbac.ViewDashboard, rbac.ManageShop); err != nil {
				return err
			}
			s, err := e.client.GetShop(cmd.Context())
			if err != nil {
				return err
			}
			return e.printShop(s)
		},
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Change the shop name, phone, CNPJ or address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			upd := authsdk.ShopUpdate{
				Name:    changed(cmd, "name"),
				Phone:   changed(cmd, "phone"),
				CNPJ:    changed(cmd, "cnpj"),
				Address: changed(cmd, "address"),
			}
			if err := upd.Validate(); err != nil {
				return err
			}
			if _, err := e.require(cmd.Context(), rbac.ManageShop, rbac.ManageSettings); err != nil {
				return err
			}
			s, err := e.client.UpdateShop(cmd.Context(), upd)
			if err != nil {
				return err
			}
			return e.printShop(s)
		},
	}
	update.Flags().String("name", "", "shop name")
	update.Flags().String("phone", "", "shop phone")
	update.Flags().String("cnpj", "", "CNPJ")
	update.Flags().String("address", "", "address")

	cmd.AddCommand(show, update)
	return cmd
}

func (e *env) printShop(s authsdk.Shop) error {
	return e.show(s, "", func(w io.Writer) {
		fmt.Fprintf(w, "Loja:\t%s\n", s.Name)
		fmt.Fprintf(w, "Telefone:\t%s\n", orDash(s.Phone))
		fmt.Fprintf(w, "CNPJ:\t%s\n", orDash(s.CNPJ))
		fmt.Fprintf(w, "Endereço:\t%s\n", orDash(s.Address))
	})
}

// changed returns the flag's value when it was given on the command line.
func changed(cmd *cobra.Command, name string) *string {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	v := f.Value.String()
	return &v
}

func (e *env) staffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "List staff and invite new members",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List staff members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.require(cmd.Context(), rbac.ManageStaff); err != nil {
				return err
			}
			staff, err := e.client.ListStaff(cmd.Context())
			if err != nil {
				return err
			}
			return e.show(staff, "NOME\tE-MAIL\tPAPEL", func(w io.Writer) {
				for _, m := range staff {
					fmt.Fprintf(w, "%s\t%s\t%s\n", m.FullName, m.Email, m.Role)
				}
			})
		},
	}

	var role string
	invite := &cobra.Command{
		Use:   "invite",
		Short: "Create a single-use invite for a new staff member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := rbac.ParseRole(role)
			if err != nil {
				return err
			}
			user, err := e.require(cmd.Context(), rbac.ManageStaff)
			if err != nil {
				return err
			}
			if !rbac.CanAssign(user.Role, r) {
				return fmt.Errorf("sem permissão: o papel %q não pode convidar %q", user.Role, r)
			}
			inv, err := e.client.CreateInvite(cmd.Context(), string(r))
			if err != nil {
				return err
			}
			return e.show(inv, "", func(w io.Writer) {
				fmt.Fprintf(w, "Convite:\t%s\n", inv.Token)
				fmt.Fprintf(w, "Papel:\t%s\n", inv.Role)
				fmt.Fprintf(w, "Expira:\t%s\n", formatTime(inv.ExpiresAt))
				fmt.Fprintf(w, "Uso:\tpetbookctl signup --invite %s\n", inv.Token)
			})
		},
	}
	invite.Flags().StringVar(&role, "role", string(rbac.RoleAttendant), "role for the new member (admin, groomer, attendant)")

	cmd.AddCommand(list, invite)
	return cmd
}

func (e *env) clientsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"customers"},
		Short:   "Manage the shop's clients",
	}

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.require(cmd.Context(), rbac.ViewClients); err != nil {
				return err
			}
			cs, err := e.client.ListCustomers(cmd.Context(), search)
			if err != nil {
				return err
			}
			return e.show(cs, "ID\tNOME\tTELEFONE\tE-MAIL", func(w io.Writer) {
				for _, c := range cs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, orDash(c.Email))
				}
			})
		},
	}
	list.Flags().StringVar(&search, "search", "", "filter by name, phone or e-mail")

	var in authsdk.CustomerInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.Validate(); err != nil {
				return err
			}
			if _, err := e.require(cmd.Context(), rbac.ManageClients); err != nil {
				return err
			}
			c, err := e.client.CreateCustomer(cmd.Context(), in.Normalize())
			if err != nil {
				return err
			}
			e.say("Cliente %s cadastrado (%s).", c.Name, c.ID)
			if e.jsonOut {
				return e.show(c, "", nil)
			}
			return nil
		},
	}
	f := add.Flags()
	f.StringVar(&in.Name, "name", "", "client name")
	f.StringVar(&in.Phone, "phone", "", "phone with area code")
	f.StringVar(&in.Email, "email", "", "e-mail address")
	f.StringVar(&in.CPF, "cpf", "", "CPF")
	f.StringVar(&in.Notes, "notes", "", "notes")

	remove := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.require(cmd.Context(), rbac.ManageClients); err != nil {
				return err
			}
			if err := e.client.DeleteCustomer(cmd.Context(), args[0]); err != nil {
				return err
			}
			e.say("Cliente removido.")
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func (e *env) petsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pets",
		Short: "Manage pets",
	}

	var clientID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List pets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.require(cmd.Context(), rbac.ViewClients, rbac.ManagePets); err != nil {
				return err
			}
			pets, err := e.client.ListPets(cmd.Context(), clientID)
			if err != nil {
				return err
			}
			return e.show(pets, "ID\tNOME\tESPÉCIE\tRAÇA\tCLIENTE", func(w io.Writer) {
				for _, p := range pets {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Species, orDash(p.Breed), p.ClientID)
				}
			})
		},
	}
	list.Flags().StringVar(&clientID, "client", "", "only pets of this client")

	var in authsdk.PetInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a pet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.Validate(time.Now()); err != nil {
				return err
			}
			if _, err := e.require(cmd.Context(), rbac.ManagePets); err != nil {
				return err
			}
			p, err := e.client.CreatePet(cmd.Context(), in)
			if err != nil {
				return err
			}
			e.say("Pet %s cadastrado (%s).", p.Name, p.ID)
			if e.jsonOut {
				return e.show(p, "", nil)
			}
			return nil
		},
	}
	f := add.Flags()
	f.StringVar(&in.ClientID, "client", "", "owner client ID")
	f.StringVar(&in.Name, "name", "", "pet name")
	f.StringVar(&in.Species, "species", "", "species, e.g. cão or gato")
	f.StringVar(&in.Breed, "breed", "", "breed")
	f.StringVar(&in.BirthDate, "birth", "", "birth date (YYYY-MM-DD)")
	f.IntVar(&in.WeightGrams, "weight", 0, "weight in grams")
	f.StringVar(&in.Notes, "notes", "", "notes")

	photo := &cobra.Command{
		Use:   "photo ID",
		Short: "Print a temporary link to the pet's photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.require(cmd.Context(), rbac.ViewClients, rbac.ManagePets); err != nil {
				return err
			}
			u, err := e.client.PetPhotoURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.show(u, "", func(w io.Writer) {
				fmt.Fprintln(w, u.URL)
			})
		},
	}

	cmd.AddCommand(list, add, photo)
	return cmd
}

func (e *env) servicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Manage the service catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.require(cmd.Context(), rbac.ManageServices, rbac.ManageAppointments); err != nil {
				return err
			}
			svcs, err := e.client.ListServices(cmd.Context())
			if err != nil {
				return err
			}
			return e.show(svcs, "ID\tNOME\tPREÇO\tDURAÇÃO\tATIVO", func(w io.Writer) {
				for _, s := range svcs {
					active := "sim"
					if !s.Active {
						active = "não"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d min\t%s\n", s.ID, s.Name, formatMoney(s.PriceCents), s.DurationMinutes, active)
				}
			})
		},
	}

	var in authsdk.ServiceInput
	var price string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cents, err := parseMoney(price)
			if err != nil {
				return err
			}
			in.PriceCents = cents
			if err := in.Validate(); err != nil {
				return err
			}
			if _, err := e.require(cmd.Context(), rbac.ManageServices); err != nil {
				return err
			}
			s, err := e.client.CreateService(cmd.Context(), in)
			if err != nil {
				return err
			}
			e.say("Serviço %s criado (%s).", s.Name, s.ID)
			if e.jsonOut {
				return e.show(s, "", nil)
			}
			return nil
		},
	}
	f := add.Flags()
	f.StringVar(&in.Name, "name", "", "service name")
	f.StringVar(&in.Description, "description", "", "description")
	f.StringVar(&price, "price", "0", "price in reais, e.g. 45,90")
	f.IntVar(&in.DurationMinutes, "duration", 60, "duration in minutes")

	cmd.AddCommand(list, add)
	return cmd
}

// timeLayouts are accepted by --at, --from and --to, in local time.
var timeLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "02/01/2006 15:04", "2006-01-02"}

func parseLocalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("data inválida: %q (use AAAA-MM-DD HH:MM)", s)
}

func (e *env) appointmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"agenda"},
		Short:   "Manage appointments",
	}

	var date, from, to string
	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments for a day or a range",
		Long: `List appointments. --date picks one day; --from and --to a range.
Without any the server returns the next seven days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := authsdk.AppointmentQuery{Date: date}
			var err error
			if from != "" {
				if q.From, err = parseLocalTime(from); err != nil {
					return err
				}
			}
			if to != "" {
				if q.To, err = parseLocalTime(to); err != nil {
					return err
				}
			}
			if _, err := e.require(cmd.Context(), rbac.ManageAppointments); err != nil {
				return err
			}
			appts, err := e.client.ListAppointments(cmd.Context(), q)
			if err != nil {
				return err
			}
			return e.printAppointments(appts)
		},
	}
	list.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD)")
	list.Flags().StringVar(&from, "from", "", "range start")
	list.Flags().StringVar(&to, "to", "", "range end")
	list.MarkFlagsMutuallyExclusive("date", "from")
	list.MarkFlagsMutuallyExclusive("date", "to")

	var in authsdk.AppointmentInput
	var at, price string
	book := &cobra.Command{
		Use:   "book",
		Short: "Book a pet for a service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if at != "" {
				t, err := parseLocalTime(at)
				if err != nil {
					return err
				}
				in.ScheduledAt = t
			}
			if price != "" {
				cents, err := parseMoney(price)
				if err != nil {
					return err
				}
				in.PriceCents = &cents
			}
			if err := in.Validate(); err != nil {
				return err
			}
			if _, err := e.require(cmd.Context(), rbac.ManageAppointments); err != nil {
				return err
			}
			a, err := e.client.CreateAppointment(cmd.Context(), in)
			if err != nil {
				return err
			}
			return e.printAppointments([]authsdk.Appointment{a})
		},
	}
	f := book.Flags()
	f.StringVar(&in.PetID, "pet", "", "pet ID")
	f.StringVar(&in.ServiceID, "service", "", "service ID")
	f.StringVar(&in.StaffID, "staff", "", "staff member ID")
	f.StringVar(&at, "at", "", "date and time (YYYY-MM-DD HH:MM)")
	f.StringVar(&price, "price", "", "price in reais; defaults to the service price")
	f.StringVar(&in.Notes, "notes", "", "notes")

	status := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move an appointment to a new status",
		Long: `Move an appointment along scheduled, confirmed, in_progress and
completed, or cancel it with "cancelled".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.require(cmd.Context(), rbac.ManageAppointments); err != nil {
				return err
			}
			a, err := e.client.UpdateAppointmentStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return e.printAppointments([]authsdk.Appointment{a})
		},
	}

	cmd.AddCommand(list, book, status)
	return cmd
}

func (e *env) printAppointments(appts []authsdk.Appointment) error {
	return e.show(appts, "ID\tQUANDO\tPET\tSERVIÇO\tSTATUS\tPREÇO", func(w io.Writer) {
		for _, a := range appts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.ID, formatTime(a.ScheduledAt), a.PetID, a.ServiceID, a.Status, formatMoney(a.PriceCents))
		}
	})
}
