package frontend

import (
	"net/url"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// requireLogin sends anonymous visitors to the login page and reports
// whether the page may render.
func requireLogin(ctx app.Context) bool {
	if State.LoggedIn() {
		return true
	}
	ctx.Navigate("/login?return=" + url.QueryEscape(app.Window().URL().Path))
	return false
}

// pathID returns the path element after prefix, e.g. the game id of
// "/game/abc".
func pathID(prefix string) string {
	parts := strings.Split(strings.Trim(app.Window().URL().Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == prefix {
		return parts[1]
	}
	return ""
}

// Home is the dashboard: create a game or join one by id.
type Home struct {
	app.Compo
	GameID string
}

func (h *Home) OnMount(ctx app.Context) {
	klog.V(1).Infof("Home: OnMount called")
	State.Listeners["home"] = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
}

func (h *Home) OnDismount() {
	delete(State.Listeners, "home")
}

func (h *Home) OnNav(ctx app.Context) {
	klog.V(1).Infof("Home: OnNav called, Path=%s", app.Window().URL().Path)
	requireLogin(ctx)
}

func (h *Home) OnAppUpdate(ctx app.Context) {
	klog.Infof("Home component: App update available, reloading...")
	ctx.Reload()
}

func (h *Home) onCreateGame(ctx app.Context, e app.Event) {
	e.PreventDefault()
	State.NewSetup()
	ctx.Navigate("/setup")
}

func (h *Home) onJoinGame(ctx app.Context, e app.Event) {
	e.PreventDefault()
	id := strings.TrimSpace(h.GameID)
	if id == "" {
		return
	}
	ctx.Navigate("/game/" + url.PathEscape(id))
}

func (h *Home) Render() app.UI {
	if !State.LoggedIn() {
		return app.Main().Class("container").Body(
			app.Div().Aria("busy", "true").Text("Redirecting to login..."),
		)
	}

	var current app.UI = app.Text("")
	if id := State.Session.GameID(); id != "" {
		current = app.P().Body(
			app.Text("You are seated at game "),
			app.A().Href("/game/"+url.PathEscape(id)).Text(id),
			app.Text("."),
		)
	}

	return app.Main().Class("container").Body(
		&TopBar{ShowLogout: true},
		current,
		app.Div().Class("grid").Body(
			app.Article().Body(
				app.Header().Body(app.H3().Text("New game")),
				app.P().Text("Pick the rules, invite friends and start playing."),
				app.Button().Text("Create Game").OnClick(h.onCreateGame),
			),
			app.Article().Body(
				app.Header().Body(app.H3().Text("Join a game")),
				app.Form().OnSubmit(h.onJoinGame).Body(
					app.Input().
						Type("text").
						Name("gameID").
						Placeholder("Game ID").
						Required(true).
						Value(h.GameID).
						OnInput(bind(&h.GameID)),
					app.Button().Type("submit").Class("secondary").Text("Join"),
				),
			),
		),
	)
}
