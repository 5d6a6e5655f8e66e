package frontend

import (
	"context"
	"fmt"
	"sort"

	"github.com/cardtable/webclient/internal/connection"
	"github.com/cardtable/webclient/internal/game"
	"github.com/cardtable/webclient/internal/gate"
	"github.com/cardtable/webclient/internal/interaction"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Game is the board of the game being played.
type Game struct {
	app.Compo
	GameID string
	Error  string
	Order  game.SortOrder // Hand order, BySuit when empty.
}

func (g *Game) OnAppUpdate(ctx app.Context) {
	klog.Infof("Game component: App update available, not reloading not to interrupt the game...")
}

func (g *Game) OnMount(ctx app.Context) {
	klog.Infof("Game component: OnMount called")
	State.Listeners["game"] = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
}

func (g *Game) OnDismount() {
	klog.Infof("Game component: OnDismount called")
	delete(State.Listeners, "game")
	State.LeaveGame()
}

func (g *Game) OnNav(ctx app.Context) {
	klog.Infof("Game component: OnNav called")
	if !requireLogin(ctx) {
		return
	}
	g.GameID = pathID("game")
	if g.GameID == "" {
		g.Error = "No Game ID provided"
		klog.Errorf("Game component: Error: %s", g.Error)
		return
	}
	g.connect(ctx)
}

func (g *Game) connect(ctx app.Context) {
	gameID := g.GameID
	g.Error = ""
	klog.Infof("Game component: Connecting to game ID: %s", gameID)
	ctx.Async(func() {
		err := State.JoinGame(gameID)
		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				g.Error = fmt.Sprintf("Failed to connect to game: %v", err)
				klog.Errorf("Game component: Error connecting: %v", err)
			}
		})
	})
}

// act runs a gated action off the UI goroutine. Rejections are shown in the
// error banner; the game state is left untouched.
func (g *Game) act(ctx app.Context, fn func(*gate.Gate, context.Context) error) {
	g.Error = ""
	gt := State.Session.Gate()
	ctx.Async(func() {
		err := fn(gt, context.Background())
		if err == nil {
			return
		}
		klog.Warningf("Game component: action rejected: %v", err)
		ctx.Dispatch(func(ctx app.Context) {
			g.Error = errorMessage(err)
		})
	})
}

func (g *Game) onRetry(ctx app.Context, e app.Event) {
	e.PreventDefault()
	g.connect(ctx)
}

func playerLabel(local game.Local, id string) string {
	if id == local.Self {
		return "You"
	}
	return id
}

func renderCard(c game.Card) app.UI {
	color := "inherit"
	if c.Suit.Red() {
		color = "crimson"
	}
	return app.Span().Style("color", color).Style("font-weight", "bold").Text(c.String())
}

func (g *Game) renderStatus(status connection.Status, statusErr error) app.UI {
	switch status {
	case connection.StatusReconnecting:
		return app.P().Aria("busy", "true").Text("Connection lost, reconnecting...")
	case connection.StatusDisconnected:
		msg := "Disconnected from the game."
		if statusErr != nil {
			msg = fmt.Sprintf("Disconnected from the game: %v", statusErr)
		}
		return app.Article().Body(
			app.P().Style("color", "red").Text(msg),
			app.Button().Text("Reconnect").OnClick(g.onRetry),
		)
	}
	return app.Text("")
}

func (g *Game) renderTable(local game.Local) app.UI {
	s := local.Game
	turn := "Waiting for " + s.CurrentPlayerID
	if local.MyTurn() {
		turn = "Your turn"
	}
	arrow := "↻"
	if s.Direction == game.Counterclockwise {
		arrow = "↺"
	}
	var top app.UI = app.Span().Text("empty")
	if c, ok := s.TopCard(); ok {
		top = renderCard(c)
	}
	suit := "any"
	if s.CurrentSuit != "" {
		suit = s.CurrentSuit.Symbol() + " " + string(s.CurrentSuit)
	}

	return app.Article().Body(
		app.Header().Body(app.Strong().Text(turn)),
		app.Div().Class("grid").Body(
			app.Div().Body(app.Small().Text("Discard"), app.H2().Body(top)),
			app.Div().Body(app.Small().Text("Suit"), app.H3().Text(suit)),
			app.Div().Body(app.Small().Text("Direction"), app.H3().Text(arrow+" "+string(s.Direction))),
			app.Div().Body(app.Small().Text("Next"), app.H3().Text(playerLabel(local, s.NextPlayerID))),
		),
	)
}

func (g *Game) renderPlayers(local game.Local) app.UI {
	s := local.Game
	var items []app.UI
	for _, id := range s.SeatingOrder() {
		ps := s.PlayerStates[id]
		label := fmt.Sprintf("%s: %d card(s)", playerLabel(local, id), ps.Size())
		if ps.AnnouncedOneCard {
			label += ", one card!"
		}
		if ps.Penalties > 0 {
			label += fmt.Sprintf(", %d penalty", ps.Penalties)
		}
		li := app.Li().Text(label)
		if id == s.CurrentPlayerID {
			li = app.Li().Body(app.Mark().Text(label))
		}
		items = append(items, li)
	}
	return app.Article().Body(
		app.Header().Text("Players"),
		app.Ul().Body(items...),
	)
}

func (g *Game) renderHand(local game.Local) app.UI {
	hand := game.SortHand(local.Game.AnnotateHand(local.Self), g.Order)
	var cards []app.UI
	for _, c := range hand {
		pending := local.IsPending(c)
		disabled := gate.CheckPlay(local, c) != nil
		btn := app.Button().
			Class("outline").
			Style("width", "auto").
			Style("margin", "0.25rem").
			Disabled(disabled).
			Body(renderCard(c)).
			OnClick(func(ctx app.Context, e app.Event) {
				g.act(ctx, func(gt *gate.Gate, c2 context.Context) error { return gt.PlayCard(c2, c) })
			})
		if pending {
			btn = btn.Aria("busy", "true").Style("opacity", "0.5")
		} else if !c.Playable {
			btn = btn.Style("opacity", "0.6")
		}
		cards = append(cards, btn)
	}

	return app.Article().Body(
		app.Header().Style("display", "flex").Style("justify-content", "space-between").Body(
			app.Span().Text(fmt.Sprintf("Your hand (%d)", len(hand))),
			app.Button().Class("secondary outline").Style("width", "auto").
				Text(g.sortLabel()).OnClick(g.onToggleSort),
		),
		app.Div().Body(cards...),
		app.Footer().Body(
			app.Div().Style("display", "flex").Style("gap", "1rem").Body(
				app.Button().Text("Draw").Disabled(gate.CheckDraw(local) != nil).
					OnClick(func(ctx app.Context, e app.Event) {
						g.act(ctx, (*gate.Gate).DrawCard)
					}),
				app.Button().Class("secondary").Text("Pass").Disabled(gate.CheckPass(local) != nil).
					OnClick(func(ctx app.Context, e app.Event) {
						g.act(ctx, (*gate.Gate).PassTurn)
					}),
				app.Button().Class("contrast").Text("One card!").Disabled(gate.CheckAnnounce(local) != nil).
					OnClick(func(ctx app.Context, e app.Event) {
						g.act(ctx, (*gate.Gate).AnnounceOneCard)
					}),
			),
		),
	)
}

func (g *Game) sortLabel() string {
	if g.Order == game.ByValue {
		return "Sort by suit"
	}
	return "Sort by value"
}

func (g *Game) onToggleSort(ctx app.Context, e app.Event) {
	if g.Order == game.ByValue {
		g.Order = game.BySuit
	} else {
		g.Order = game.ByValue
	}
}

// renderModal shows the choice the player must make, if any.
func (g *Game) renderModal(local game.Local, mode interaction.Mode) app.UI {
	var title string
	var options []app.UI
	switch m := mode.(type) {
	case interaction.AwaitingSuitChoice:
		title = "Choose a suit"
		for _, suit := range game.Suits {
			options = append(options, app.Button().Class("outline").
				Text(suit.Symbol()+" "+string(suit)).
				OnClick(func(ctx app.Context, e app.Event) {
					g.act(ctx, func(gt *gate.Gate, c context.Context) error { return gt.ChooseSuit(c, suit) })
				}))
		}
	case interaction.AwaitingTargetChoice:
		title = "Choose a player"
		players := append([]string(nil), m.Players...)
		sort.Strings(players)
		for _, id := range players {
			options = append(options, app.Button().Class("outline").
				Text(playerLabel(local, id)).
				OnClick(func(ctx app.Context, e app.Event) {
					g.act(ctx, func(gt *gate.Gate, c context.Context) error { return gt.ChooseTarget(c, id) })
				}))
		}
	case interaction.AwaitingCounterChoice:
		title = fmt.Sprintf("%s was played against you", m.Card)
		for _, choice := range []game.CounterChoice{game.Accept, game.Counter} {
			options = append(options, app.Button().Class("outline").
				Text(string(choice)).
				OnClick(func(ctx app.Context, e app.Event) {
					g.act(ctx, func(gt *gate.Gate, c context.Context) error { return gt.ChooseCounterAction(c, choice) })
				}))
		}
	default:
		return app.Text("")
	}
	return app.Dialog().Open(true).Body(
		app.Article().Body(
			app.Header().Text(title),
			errorText(g.Error),
			app.Div().Style("display", "flex").Style("flex-wrap", "wrap").Style("gap", "0.5rem").Body(options...),
		),
	)
}

func (g *Game) renderGameOver(local game.Local) app.UI {
	s := local.Game
	winner := playerLabel(local, s.WinnerID) + " won!"
	if s.WinnerID == local.Self {
		winner = "You won!"
	}
	ids := make([]string, 0, len(s.Scores))
	for id := range s.Scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.Scores[ids[i]] > s.Scores[ids[j]] })
	var rows []app.UI
	for _, id := range ids {
		rows = append(rows, app.Tr().Body(
			app.Td().Text(playerLabel(local, id)),
			app.Td().Text(s.Scores[id]),
		))
	}
	return app.Article().Body(
		app.Header().Body(app.H2().Text("Game over")),
		app.P().Text(winner),
		app.Table().Body(app.TBody().Body(rows...)),
		app.A().Href("/").Text("Return to Home"),
	)
}

func (g *Game) Render() app.UI {
	if !State.LoggedIn() || State.Session == nil {
		return app.Main().Class("container").Body(
			app.Div().Aria("busy", "true").Text("Redirecting to login..."),
		)
	}

	local := State.Session.Local()
	status, statusErr := State.Session.Status()

	var content app.UI
	switch {
	case local.Game == nil && g.Error != "":
		content = app.Article().Body(
			app.H2().Text("Game Error"),
			app.P().Style("color", "red").Text(g.Error),
			app.Button().Text("Retry").OnClick(g.onRetry),
			app.A().Href("/").Text("Return to Home"),
		)
	case local.Game == nil:
		content = app.Div().Aria("busy", "true").Text("Connecting to game...")
	case local.Game.GameOver:
		content = g.renderGameOver(local)
	default:
		content = app.Div().Body(
			errorText(g.Error),
			g.renderTable(local),
			app.Div().Class("grid").Body(
				g.renderHand(local),
				g.renderPlayers(local),
			),
			g.renderModal(local, State.Session.Mode()),
		)
	}

	return app.Main().Class("container").Body(
		&TopBar{ShowLogout: true},
		g.renderStatus(status, statusErr),
		content,
	)
}
