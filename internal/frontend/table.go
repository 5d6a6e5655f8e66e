package frontend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/cardtable/webclient/internal/adminapi"
	"github.com/cardtable/webclient/internal/lobby"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Table is the game setup wizard: settings, invitations and start.
type Table struct {
	app.Compo
	SearchTerm string
	Error      string
	busy       bool
}

func (t *Table) OnMount(ctx app.Context) {
	klog.Infof("Table component: OnMount called")
	State.Listeners["table"] = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
}

func (t *Table) OnDismount() {
	klog.Infof("Table component: OnDismount called")
	delete(State.Listeners, "table")
	if State.Setup != nil && State.Setup.Started() {
		State.CloseSetup()
	} else if State.Search != nil {
		State.Search.Stop()
	}
}

func (t *Table) OnNav(ctx app.Context) {
	klog.Infof("Table component: OnNav called")
	if !requireLogin(ctx) {
		return
	}
	if State.Setup == nil {
		State.NewSetup()
	}
	setup := State.Setup
	if len(setup.RuleSets()) > 0 {
		return
	}
	ctx.Async(func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		if _, err := setup.LoadRuleSets(reqCtx); err != nil {
			klog.Warningf("Table component: rule sets: %v", err)
		}
		ctx.Dispatch(func(ctx app.Context) {})
	})
}

// run executes a wizard step off the UI goroutine and reports its error.
func (t *Table) run(ctx app.Context, step func(context.Context) error, then func(app.Context)) {
	t.busy, t.Error = true, ""
	ctx.Async(func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		err := step(reqCtx)
		ctx.Dispatch(func(ctx app.Context) {
			t.busy = false
			if err != nil {
				klog.Errorf("Table component: %v", err)
				t.Error = errorMessage(err)
				return
			}
			if then != nil {
				then(ctx)
			}
		})
	})
}

func (t *Table) onCreate(ctx app.Context, e app.Event) {
	e.PreventDefault()
	setup := State.Setup
	t.run(ctx, func(c context.Context) error {
		_, err := setup.Create(c)
		return err
	}, nil)
}

func (t *Table) onInvite(player adminapi.PlayerSummary) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		setup, search := State.Setup, State.Search
		t.run(ctx, func(c context.Context) error {
			return setup.Invite(c, player)
		}, func(ctx app.Context) {
			search.Exclude(setup.InvitedIDs())
		})
	}
}

func (t *Table) onStart(ctx app.Context, e app.Event) {
	setup := State.Setup
	t.run(ctx, setup.Start, func(ctx app.Context) {
		ctx.Navigate("/game/" + url.PathEscape(setup.GameID()))
	})
}

func (t *Table) onCancel(ctx app.Context, e app.Event) {
	State.CloseSetup()
	ctx.Navigate("/")
}

func (t *Table) onSearch(ctx app.Context, e app.Event) {
	t.SearchTerm = ctx.JSSrc().Get("value").String()
	State.Search.Type(t.SearchTerm)
}

func (t *Table) onCopyID(ctx app.Context, e app.Event) {
	app.Window().Get("navigator").Get("clipboard").Call("writeText", State.Setup.GameID())
}

func (t *Table) settingsForm(setup *lobby.Setup) app.UI {
	settings := setup.Settings()
	locked := setup.GameID() != ""

	var gameTypes []app.UI
	for _, gt := range lobby.GameTypes {
		gameTypes = append(gameTypes, app.Option().Value(gt).Selected(gt == settings.GameType).Text(gt))
	}
	var sizes []app.UI
	for _, n := range lobby.MaxPlayersOptions {
		sizes = append(sizes, app.Option().Value(strconv.Itoa(n)).Selected(n == settings.MaxPlayers).Text(fmt.Sprintf("%d players", n)))
	}
	var ruleSets []app.UI
	for _, rs := range setup.RuleSets() {
		ruleSets = append(ruleSets, app.Option().Value(rs.ID).Selected(rs.ID == settings.RuleSetID).Text(rs.Name))
	}

	var submit app.UI = app.Text("")
	if !locked {
		submit = app.Button().Type("submit").Aria("busy", t.busy).Disabled(t.busy).Text("Create Game")
	}

	return app.Form().OnSubmit(t.onCreate).Body(
		app.Div().Class("grid").Body(
			app.Label().Body(
				app.Text("Game type"),
				app.Select().Disabled(locked).OnChange(func(ctx app.Context, e app.Event) {
					v := ctx.JSSrc().Get("value").String()
					setup.Update(func(s *lobby.Settings) { s.GameType = v })
				}).Body(gameTypes...),
			),
			app.Label().Body(
				app.Text("Players"),
				app.Select().Disabled(locked).OnChange(func(ctx app.Context, e app.Event) {
					n, _ := strconv.Atoi(ctx.JSSrc().Get("value").String())
					setup.Update(func(s *lobby.Settings) { s.MaxPlayers = n })
				}).Body(sizes...),
			),
		),
		app.Div().Class("grid").Body(
			app.Label().Body(
				app.Text(fmt.Sprintf("Time limit in minutes (0 to %d, 0 for none)", lobby.MaxTimeLimit)),
				app.Input().Type("number").Min(0).Max(lobby.MaxTimeLimit).Disabled(locked).
					Value(settings.TimeLimit).
					OnInput(func(ctx app.Context, e app.Event) {
						n, _ := strconv.Atoi(ctx.JSSrc().Get("value").String())
						setup.Update(func(s *lobby.Settings) { s.TimeLimit = n })
					}),
			),
			app.Label().Body(
				app.Text("Rule set"),
				app.Select().Disabled(locked).OnChange(func(ctx app.Context, e app.Event) {
					v := ctx.JSSrc().Get("value").String()
					setup.Update(func(s *lobby.Settings) { s.RuleSetID = v })
				}).Body(ruleSets...),
			),
		),
		app.Label().Body(
			app.Input().Type("checkbox").Role("switch").Disabled(locked).Checked(settings.UseAI).
				OnChange(func(ctx app.Context, e app.Event) {
					v := ctx.JSSrc().Get("checked").Bool()
					setup.Update(func(s *lobby.Settings) { s.UseAI = v })
				}),
			app.Text("Fill empty seats with AI players"),
		),
		submit,
	)
}

func (t *Table) invitePanel(setup *lobby.Setup) app.UI {
	remaining := setup.RemainingSlots()
	var invited []app.UI
	for _, inv := range setup.Invited() {
		invited = append(invited, app.Li().Text(fmt.Sprintf("%s (%s)", inv.Username, inv.Status)))
	}

	results := State.Search.Results()
	var found []app.UI
	switch {
	case results.Loading:
		found = append(found, app.Li().Aria("busy", "true").Text("Searching..."))
	case results.Err != nil:
		found = append(found, app.Li().Style("color", "red").Text(errorMessage(results.Err)))
	case results.Term != "" && len(results.Players) == 0:
		found = append(found, app.Li().Text("No players found."))
	}
	for _, p := range results.Players {
		found = append(found, app.Li().Body(
			app.Span().Text(p.Name()+" "),
			app.A().Href("#").OnClick(func(ctx app.Context, e app.Event) {
				e.PreventDefault()
				if remaining > 0 && !t.busy {
					t.onInvite(p)(ctx, e)
				}
			}).Text("Invite"),
		))
	}

	return app.Div().Body(
		app.H3().Text("Game: "+setup.GameID()),
		app.Div().Style("display", "flex").Style("gap", "0.5rem").Body(
			app.Input().Type("text").ReadOnly(true).Value(setup.GameID()).Style("flex", "1"),
			app.Button().Class("secondary").Style("width", "auto").Text("Copy ID").OnClick(t.onCopyID),
		),
		app.Article().Body(
			app.Header().Text(fmt.Sprintf("Invite players (%d seat(s) left)", remaining)),
			app.Input().Type("search").Placeholder("Search players").
				Disabled(remaining == 0).Value(t.SearchTerm).OnInput(t.onSearch),
			app.Ul().Body(found...),
			app.H4().Text("Invited"),
			app.Ul().Body(invited...),
			app.Footer().Body(
				app.Div().Style("display", "flex").Style("gap", "1rem").Body(
					app.Button().Text("Start Game").Aria("busy", t.busy).Disabled(t.busy).OnClick(t.onStart),
					app.Button().Class("outline contrast").Text("Cancel").OnClick(t.onCancel),
				),
			),
		),
	)
}

func (t *Table) Render() app.UI {
	if !State.LoggedIn() || State.Setup == nil {
		return app.Main().Class("container").Body(
			app.Div().Aria("busy", "true").Text("Redirecting to login..."),
		)
	}
	setup := State.Setup
	var invite app.UI = app.Text("")
	if setup.GameID() != "" {
		invite = t.invitePanel(setup)
	}
	return app.Main().Class("container").Body(
		&TopBar{ShowLogout: true},
		app.Article().Body(
			app.Header().Body(app.H2().Text("Set up a game")),
			errorText(t.Error),
			t.settingsForm(setup),
		),
		invite,
	)
}
