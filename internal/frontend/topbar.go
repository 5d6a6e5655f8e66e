package frontend

import (
	"github.com/cardtable/webclient/internal/connection"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

type TopBar struct {
	app.Compo
	ShowLogout bool
}

func (t *TopBar) onLogout(ctx app.Context, e app.Event) {
	e.PreventDefault()
	State.Logout()
	ctx.Navigate("/login")
}

func (t *TopBar) onBrandClick(ctx app.Context, e app.Event) {
	ctx.Navigate("/")
}

func (t *TopBar) Render() app.UI {
	actions := []app.UI{}
	if State.Session != nil && State.Session.GameID() != "" {
		status, _ := State.Session.Status()
		class := "secondary"
		if status == connection.StatusConnected {
			class = "ins"
		}
		actions = append(actions, app.Li().Body(
			app.Small().Class(class).Text(status.String()),
		))
	}
	actions = append(actions, app.Li().Body(
		app.Strong().Text(State.Username),
	))
	if t.ShowLogout {
		actions = append(actions, app.Li().Body(app.A().Href("#").OnClick(t.onLogout).Text("Logout")))
	}

	return app.Nav().Body(
		app.Ul().Body(
			app.Li().Body(
				app.Strong().
					Style("cursor", "pointer").
					OnClick(t.onBrandClick).
					Text("♠ Card Table"),
			),
		),
		app.Ul().Body(actions...),
	)
}
