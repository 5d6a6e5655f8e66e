package frontend

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/cardtable/webclient/internal/adminapi"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Login is the component for user login
type Login struct {
	app.Compo
	ReturnURL    string
	Username     string
	Password     string
	ErrorMessage string
	Notice       string
	busy         bool
}

func (l *Login) OnMount(ctx app.Context) {
	klog.V(1).Infof("Login: OnMount called")
	l.parseReturnURL()
	if State.LoggedIn() {
		l.redirect(ctx)
	}
}

func (l *Login) OnNav(ctx app.Context) {
	klog.V(1).Infof("Login: OnNav called")
	l.parseReturnURL()
}

func (l *Login) parseReturnURL() {
	// Parse URL to find the return path, if any
	u := app.Window().URL()
	q := u.Query()
	l.ReturnURL = q.Get("return")
	if q.Get("registered") != "" {
		l.Notice = "Registration successful, you can now log in."
	}
	klog.V(1).Infof("Login: parseReturnURL URL=%s, ReturnURL=%s", u.String(), l.ReturnURL)
}

func (l *Login) redirect(ctx app.Context) {
	if l.ReturnURL != "" {
		ctx.Navigate(l.ReturnURL)
	} else {
		ctx.Navigate("/")
	}
}

func (l *Login) onLogin(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if l.Username == "" || l.Password == "" {
		l.ErrorMessage = "Username and password are required."
		return
	}
	l.busy, l.ErrorMessage = true, ""
	username, password := l.Username, l.Password
	ctx.Async(func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		err := State.Login(reqCtx, username, password)
		ctx.Dispatch(func(ctx app.Context) {
			l.busy = false
			if err != nil {
				klog.Errorf("Login: %v", err)
				l.ErrorMessage = errorMessage(err)
				return
			}
			l.Password = ""
			l.redirect(ctx)
		})
	})
}

func (l *Login) Render() app.UI {
	return app.Main().Class("container").Body(
		app.Article().Body(
			app.Header().Body(app.H2().Text("Card Table")),
			notice(l.Notice),
			errorText(l.ErrorMessage),
			app.Form().OnSubmit(l.onLogin).Body(
				app.Input().
					Type("text").
					Name("username").
					Placeholder("Username").
					Required(true).
					Value(l.Username).
					OnInput(bind(&l.Username)),
				app.Input().
					Type("password").
					Name("password").
					Placeholder("Password").
					Required(true).
					Value(l.Password).
					OnInput(bind(&l.Password)),
				app.Button().Type("submit").Aria("busy", l.busy).Disabled(l.busy).Text("Log in"),
			),
			app.Footer().Body(
				app.Text("No account yet? "),
				app.A().Href("/register").Text("Register"),
			),
		),
	)
}

// Register is the account creation form.
type Register struct {
	app.Compo
	Form         adminapi.RegisterRequest
	FieldErrors  map[string]string
	ErrorMessage string
	busy         bool
}

func (r *Register) onSubmit(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if r.Form.Password != r.Form.ConfirmPassword {
		r.FieldErrors = map[string]string{"confirm_password": "Passwords do not match."}
		return
	}
	r.busy, r.ErrorMessage, r.FieldErrors = true, "", nil
	form := r.Form
	ctx.Async(func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		msg, err := State.API.Register(reqCtx, form)
		ctx.Dispatch(func(ctx app.Context) {
			r.busy = false
			if err != nil {
				klog.Errorf("Register: %v", err)
				var apiErr *adminapi.APIError
				if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
					r.FieldErrors = make(map[string]string, len(apiErr.Fields))
					for field := range apiErr.Fields {
						r.FieldErrors[field] = apiErr.Field(field)
					}
					r.ErrorMessage = apiErr.General
					return
				}
				r.ErrorMessage = errorMessage(err)
				return
			}
			klog.Infof("Register: %s", msg)
			ctx.Navigate("/login?registered=1")
		})
	})
}

func (r *Register) field(label, name, kind string, value *string, required bool) app.UI {
	msg := r.FieldErrors[name]
	input := app.Input().
		Type(kind).
		Name(name).
		Placeholder(label).
		Required(required).
		Value(*value).
		OnInput(bind(value))
	if msg != "" {
		input = input.Aria("invalid", "true")
	}
	var hint app.UI = app.Text("")
	if msg != "" {
		hint = app.Small().Text(msg)
	}
	return app.Label().Body(app.Text(label), input, hint)
}

func (r *Register) Render() app.UI {
	f := &r.Form
	return app.Main().Class("container").Body(
		app.Article().Body(
			app.Header().Body(app.H2().Text("Create an account")),
			errorText(r.ErrorMessage),
			app.Form().OnSubmit(r.onSubmit).Body(
				r.field("Username", "username", "text", &f.Username, true),
				r.field("Email", "email", "email", &f.Email, true),
				app.Div().Class("grid").Body(
					r.field("Password", "password", "password", &f.Password, true),
					r.field("Confirm password", "confirm_password", "password", &f.ConfirmPassword, true),
				),
				app.Div().Class("grid").Body(
					r.field("First name", "first_name", "text", &f.FirstName, false),
					r.field("Last name", "last_name", "text", &f.LastName, false),
				),
				app.Div().Class("grid").Body(
					r.field("Date of birth", "date_of_birth", "date", &f.DateOfBirth, false),
					r.field("Callsign", "callsign", "text", &f.Callsign, false),
				),
				app.Button().Type("submit").Aria("busy", r.busy).Disabled(r.busy).Text("Register"),
			),
			app.Footer().Body(
				app.Text("Already registered? "),
				app.A().Href("/login").Text("Log in"),
			),
		),
	)
}

// errorMessage turns admin and transport errors into one line for the user.
func errorMessage(err error) string {
	var apiErr *adminapi.APIError
	if errors.As(err, &apiErr) && apiErr.General != "" {
		return apiErr.General
	}
	var netErr *adminapi.NetworkError
	if errors.As(err, &netErr) {
		return "Cannot reach the server, please try again."
	}
	return err.Error()
}

// bind returns an input handler storing the element value into p.
func bind(p *string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		*p = ctx.JSSrc().Get("value").String()
	}
}

func errorText(msg string) app.UI {
	if msg == "" {
		return app.Text("")
	}
	return app.Div().Style("color", "red").Style("margin-bottom", "1rem").Text(msg)
}

func notice(msg string) app.UI {
	if msg == "" {
		return app.Text("")
	}
	return app.P().Class("ins").Text(msg)
}

func getCookie(name string) string {
	document := app.Window().Get("document")
	if !document.Truthy() {
		return ""
	}
	cookie := document.Get("cookie").String()
	// A simple manual parser for exactly the key
	nameLen := len(name)
	for i := 0; i < len(cookie); i++ {
		if i+nameLen <= len(cookie) && cookie[i:i+nameLen] == name {
			if i+nameLen < len(cookie) && cookie[i+nameLen] == '=' {
				start := i + nameLen + 1
				end := start
				for end < len(cookie) && cookie[end] != ';' {
					end++
				}
				v, _ := url.QueryUnescape(cookie[start:end])
				return v
			}
		}
	}
	return ""
}

func setCookie(name, value string, days int) {
	document := app.Window().Get("document")
	if !document.Truthy() {
		return
	}
	expires := ""
	if days > 0 {
		t := time.Now().AddDate(0, 0, days)
		expires = "; expires=" + t.UTC().Format(time.RFC1123)
	}
	document.Set("cookie", name+"="+url.QueryEscape(value)+expires+"; path=/; SameSite=Strict")
}

func clearCookie(name string) {
	document := app.Window().Get("document")
	if !document.Truthy() {
		return
	}
	document.Set("cookie", name+"=; expires=Thu, 01 Jan 1970 00:00:00 UTC; path=/;")
}
