package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"staybook/internal/domain"
	"staybook/internal/models"
	"staybook/internal/pricing"
	"staybook/internal/search"
)

var errLoginRequired = errors.New("not logged in")

type command struct {
	name    string
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = []command{
	{"search", "search hotels by destination, dates and guests", (*app).cmdSearch},
	{"hotel", "show a hotel and its rooms", (*app).cmdHotel},
	{"recommend", "show recommended hotels", (*app).cmdRecommend},
	{"book", "book a room and pay for it", (*app).cmdBook},
	{"pay", "pay for an existing booking", (*app).cmdPay},
	{"bookings", "list your bookings", (*app).cmdBookings},
	{"show", "show one booking", (*app).cmdShow},
	{"cancel", "cancel a booking", (*app).cmdCancel},
	{"login", "log in and store the token", (*app).cmdLogin},
	{"register", "create an account", (*app).cmdRegister},
	{"logout", "forget the stored token", (*app).cmdLogout},
	{"whoami", "show the logged in user", (*app).cmdWhoami},
}

func isHelp(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: funnel <command> [flags]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	_ = tw.Flush()
	fmt.Fprintln(w, "\nRun `funnel <command> -h` for the flags of a command. CONFIG_PATH selects the config file.")
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	for _, c := range commands {
		if c.name == args[0] {
			err := c.run(a, ctx, args[1:])
			if errors.Is(err, flag.ErrHelp) {
				return nil
			}
			if errors.Is(err, errLoginRequired) || domain.IsReauthRequired(err) {
				if navErr := a.nav.Navigate(ctx, models.RouteLogin, map[string]string{"command": c.name}); navErr != nil {
					a.logger.Warn().Err(navErr).Msg("Failed to show login route")
				}
			}
			return err
		}
	}
	usage(os.Stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func (a *app) requireLogin(ctx context.Context) error {
	if err := a.auth.Init(ctx); err != nil {
		return err
	}
	if !a.auth.Authenticated() {
		return errLoginRequired
	}
	return nil
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	fs := a.flags("search")
	destination := fs.String("destination", "", "city or destination")
	checkIn := fs.String("check-in", "", "check-in date, YYYY-MM-DD")
	checkOut := fs.String("check-out", "", "check-out date, YYYY-MM-DD")
	guests := fs.Int("guests", models.DefaultGuests, "number of guests")
	query := fs.String("query", "", "query string from an earlier search; flags override it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := search.Decode(*query)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "destination":
			q.Destination = *destination
		case "check-in":
			q.CheckIn = *checkIn
		case "check-out":
			q.CheckOut = *checkOut
		case "guests":
			q.Guests = *guests
		}
	})

	hotels, encoded, err := a.funnel.Search(ctx, q)
	if err != nil {
		return err
	}
	if len(hotels) == 0 {
		fmt.Fprintln(a.out, "No hotels found.")
	} else {
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCITY\tRATING\tFROM/NIGHT")
		for _, h := range hotels {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\n", h.ID, h.Name, h.City, h.Rating, a.money(cheapest(h)))
		}
		_ = tw.Flush()
	}
	fmt.Fprintf(a.out, "\nquery: %s\n", encoded)
	return nil
}

func (a *app) cmdHotel(ctx context.Context, args []string) error {
	fs := a.flags("hotel")
	id := fs.String("id", "", "hotel id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return domain.ValidationError{Field: "id", Msg: "is required"}
	}

	h, err := a.client.GetHotel(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n%s, %s\nRating: %.1f\n", h.Name, h.ID, h.Address, h.City, h.Rating)
	if len(h.Amenities) > 0 {
		fmt.Fprintf(a.out, "Amenities: %s\n", strings.Join(h.Amenities, ", "))
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nROOM\tPRICE/NIGHT\tCAPACITY\tAVAILABLE")
	for _, r := range h.Rooms {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.Type, a.money(r.BasePrice), r.Capacity, r.Available)
	}
	return tw.Flush()
}

func (a *app) cmdRecommend(ctx context.Context, args []string) error {
	fs := a.flags("recommend")
	limit := fs.Int("limit", 5, "maximum number of hotels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.auth.Init(ctx); err != nil {
		return err
	}

	recs, err := a.client.Recommendations(ctx, *limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No recommendations yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCITY\tSCORE\tWHY")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", r.Hotel.ID, r.Hotel.Name, r.Hotel.City, r.Score, r.Reason)
	}
	return tw.Flush()
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	fs := a.flags("book")
	hotelID := fs.String("hotel", "", "hotel id")
	roomType := fs.String("room", "", "room type")
	price := fs.Int64("price", 0, "nightly rate; looked up from the hotel when 0")
	checkIn := fs.String("check-in", "", "check-in date, YYYY-MM-DD")
	checkOut := fs.String("check-out", "", "check-out date, YYYY-MM-DD")
	guests := fs.Int("guests", 0, "number of guests")
	query := fs.String("query", "", "search query string to take dates and guests from")
	firstName := fs.String("first-name", "", "guest first name")
	lastName := fs.String("last-name", "", "guest last name")
	email := fs.String("email", "", "guest email")
	phone := fs.String("phone", "", "guest phone")
	noPay := fs.Bool("no-pay", false, "create the booking without paying now")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := search.Decode(*query)
	if *checkIn == "" {
		*checkIn = q.CheckIn
	}
	if *checkOut == "" {
		*checkOut = q.CheckOut
	}
	if *guests == 0 {
		*guests = q.Guests
	}

	in, out, err := parseStay(*checkIn, *checkOut)
	if err != nil {
		return err
	}
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	f, err := a.funnel.SelectRoom(ctx, *hotelID, *roomType, *price, in, out, *guests)
	if err != nil {
		return err
	}
	if _, err := a.funnel.UpdateGuest(ctx, f.ID, models.GuestDetails{
		FirstName: *firstName,
		LastName:  *lastName,
		Email:     *email,
		Phone:     *phone,
	}); err != nil {
		return err
	}

	quote, err := a.funnel.Review(ctx, f.ID)
	if err != nil {
		_ = a.funnel.Abandon(ctx, f.ID)
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			fmt.Fprintln(a.out, "Please fix the booking details:")
			for _, v := range verrs {
				fmt.Fprintf(a.out, "  %s %s\n", v.Field, v.Msg)
			}
		}
		return err
	}
	fmt.Fprintf(a.out, "%s, %s: %d night(s) x %s = %s\n",
		*hotelID, *roomType, quote.Nights, a.money(f.Draft.BasePrice), a.money(quote.Total))

	booking, err := a.funnel.Submit(ctx, f.ID)
	if err != nil {
		return fmt.Errorf("booking not created, you can retry: %w", err)
	}
	fmt.Fprintf(a.out, "Booking %s created, status %s.\n", booking.ID, booking.Status)

	if *noPay {
		fmt.Fprintf(a.out, "Pay later with: funnel pay -booking %s\n", booking.ID)
		return a.nav.Navigate(ctx, models.RouteConfirmation, map[string]string{"booking_id": booking.ID})
	}
	return a.pay(ctx, booking)
}

func (a *app) cmdPay(ctx context.Context, args []string) error {
	fs := a.flags("pay")
	bookingID := fs.String("booking", "", "booking id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireBooking(*bookingID); err != nil {
		return err
	}
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	booking, err := a.funnel.Confirmation(ctx, *bookingID)
	if err != nil {
		return err
	}
	if booking.IsPaid() {
		fmt.Fprintf(a.out, "Booking %s is already paid.\n", booking.ID)
		return nil
	}
	return a.pay(ctx, booking)
}

func (a *app) pay(ctx context.Context, booking *models.Booking) error {
	if err := a.startProvider(); err != nil {
		return err
	}

	manual := make(chan struct{})
	go func() {
		if _, err := bufio.NewReader(a.in).ReadString('\n'); err == nil {
			close(manual)
		}
	}()

	fmt.Fprintf(a.out, "Paying %s for booking %s.\n", a.money(booking.TotalAmount), booking.ID)
	out, err := a.funnel.Pay(ctx, booking, manual)
	if err != nil {
		if domain.IsPayment(err) {
			fmt.Fprintf(a.out, "Payment failed: %v\nTry again with: funnel pay -booking %s\n", err, booking.ID)
		}
		return err
	}
	if !out.Navigated {
		fmt.Fprintf(a.out, "Payment confirmed for booking %s.\n", booking.ID)
	}
	return nil
}

func (a *app) cmdBookings(ctx context.Context, args []string) error {
	if err := a.requireLogin(ctx); err != nil {
		return err
	}
	return a.printBookings(ctx)
}

func (a *app) printBookings(ctx context.Context) error {
	list, err := a.funnel.MyBookings(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "You have no bookings.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tHOTEL\tROOM\tCHECK-IN\tCHECK-OUT\tGUESTS\tTOTAL\tSTATUS\tPAYMENT")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			b.ID, b.HotelID, b.RoomType, pricing.FormatDate(b.CheckIn), pricing.FormatDate(b.CheckOut),
			b.Guests, a.money(b.TotalAmount), b.Status, b.PaymentStatus)
	}
	return tw.Flush()
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	fs := a.flags("show")
	bookingID := fs.String("booking", "", "booking id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireBooking(*bookingID); err != nil {
		return err
	}
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	b, err := a.funnel.Confirmation(ctx, *bookingID)
	if err != nil {
		return err
	}
	a.printBooking(b)
	return nil
}

func (a *app) printBooking(b *models.Booking) {
	fmt.Fprintf(a.out, "Booking %s\n", b.ID)
	fmt.Fprintf(a.out, "  Hotel:    %s (%s)\n", b.HotelID, b.RoomType)
	fmt.Fprintf(a.out, "  Stay:     %s to %s, %d guest(s)\n", pricing.FormatDate(b.CheckIn), pricing.FormatDate(b.CheckOut), b.Guests)
	fmt.Fprintf(a.out, "  Total:    %s\n", a.money(b.TotalAmount))
	fmt.Fprintf(a.out, "  Status:   %s, payment %s\n", b.Status, b.PaymentStatus)
	if b.CancellationReason != "" {
		fmt.Fprintf(a.out, "  Reason:   %s\n", b.CancellationReason)
	}
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	fs := a.flags("cancel")
	bookingID := fs.String("booking", "", "booking id")
	reason := fs.String("reason", "", "cancellation reason")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireBooking(*bookingID); err != nil {
		return err
	}
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	b, err := a.funnel.CancelBooking(ctx, *bookingID, *reason)
	if err != nil {
		return err
	}
	a.printBooking(b)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("STAYBOOK_PASSWORD"), "account password (default $STAYBOOK_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s <%s>.\n", user.Name, user.Email)
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := a.flags("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	phone := fs.String("phone", "", "phone number")
	password := fs.String("password", os.Getenv("STAYBOOK_PASSWORD"), "account password (default $STAYBOOK_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Register(ctx, *name, *email, *phone, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s. You are logged in.\n", user.Name)
	return nil
}

func (a *app) cmdLogout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context, _ []string) error {
	if err := a.requireLogin(ctx); err != nil {
		return err
	}
	u := a.auth.User()
	fmt.Fprintf(a.out, "%s <%s> %s\n", u.Name, u.Email, u.Role)
	return nil
}

// cliNavigator renders the target view in the terminal.
type cliNavigator struct {
	app *app
}

func (n *cliNavigator) Navigate(ctx context.Context, route string, params map[string]string) error {
	switch route {
	case models.RouteBookings:
		fmt.Fprintln(n.app.out, "\nYour bookings:")
		return n.app.printBookings(ctx)
	case models.RouteConfirmation:
		b, err := n.app.funnel.Confirmation(ctx, params["booking_id"])
		if err != nil {
			return err
		}
		n.app.printBooking(b)
		return nil
	case models.RouteLogin:
		fmt.Fprintln(n.app.out, "Please log in: funnel login -email <email> -password <password>")
		if cmd := params["command"]; cmd != "" {
			fmt.Fprintf(n.app.out, "Then run `funnel %s` again.\n", cmd)
		}
		return nil
	default:
		return fmt.Errorf("unknown route %q", route)
	}
}

func requireBooking(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ValidationError{Field: "booking", Msg: "is required"}
	}
	return nil
}

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	var (
		in, out time.Time
		verrs   domain.ValidationErrors
		err     error
	)
	if checkIn != "" {
		if in, err = pricing.ParseDate(checkIn); err != nil {
			verrs = append(verrs, domain.ValidationError{Field: "check_in", Msg: "must be YYYY-MM-DD"})
		}
	}
	if checkOut != "" {
		if out, err = pricing.ParseDate(checkOut); err != nil {
			verrs = append(verrs, domain.ValidationError{Field: "check_out", Msg: "must be YYYY-MM-DD"})
		}
	}
	if len(verrs) > 0 {
		return time.Time{}, time.Time{}, verrs
	}
	return in, out, nil
}

func cheapest(h models.Hotel) int64 {
	var low int64
	for i, r := range h.Rooms {
		if i == 0 || r.BasePrice < low {
			low = r.BasePrice
		}
	}
	return low
}

func (a *app) money(amount int64) string {
	return fmt.Sprintf("%d %s", amount, strings.ToUpper(a.cfg.Payment.Currency))
}
