// Command cli plays a game from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/cardtable/webclient/internal/adminapi"
	"github.com/cardtable/webclient/internal/connection"
	"github.com/cardtable/webclient/internal/console"
	"github.com/cardtable/webclient/internal/lobby"
	"github.com/cardtable/webclient/internal/session"
	"github.com/chzyer/readline"
	"k8s.io/klog/v2"
)

var (
	flagServer  = flag.String("server", "http://localhost:8000", "Base URL of the admin and game service")
	flagUser    = flag.String("user", "", "Username to log in with")
	flagGame    = flag.String("game", "", "Game to join; empty creates a new game against AI players")
	flagRuleSet = flag.String("rules", "", "Rule set of a new game (default: the first offered)")
	flagPlayers = flag.Int("players", 2, "Number of seats of a new game")
	flagHistory = flag.String("history", filepath.Join(os.TempDir(), "cardtable_history"), "Readline history file")
	envPassword = os.Getenv("CARDTABLE_PASSWORD")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagUser == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}
	base, err := url.Parse(*flagServer)
	if err != nil {
		klog.Fatalf("invalid -server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	completer := readline.NewPrefixCompleter(
		readline.PcItem("play"),
		readline.PcItem("draw"),
		readline.PcItem("pass"),
		readline.PcItem("one"),
		readline.PcItem("suit",
			readline.PcItem("hearts"),
			readline.PcItem("diamonds"),
			readline.PcItem("clubs"),
			readline.PcItem("spades"),
		),
		readline.PcItem("target"),
		readline.PcItem("counter",
			readline.PcItem("accept"),
			readline.PcItem("counter"),
		),
		readline.PcItem("sort",
			readline.PcItem("suit"),
			readline.PcItem("value"),
		),
		readline.PcItem("state"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
	l, err := readline.NewEx(&readline.Config{
		Prompt:            "» ",
		HistoryFile:       *flagHistory,
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		klog.Fatal(err)
	}
	defer l.Close()

	password := envPassword
	if password == "" {
		pw, err := l.ReadPassword("password: ")
		if err != nil {
			klog.Fatal(err)
		}
		password = string(pw)
	}

	api := adminapi.New(base.String())
	tokens, err := api.Login(ctx, *flagUser, password)
	if err != nil {
		klog.Fatalf("login failed: %v", err)
	}
	self, err := adminapi.PlayerIDFromToken(tokens.Access)
	if err != nil {
		klog.Fatalf("login failed: %v", err)
	}

	gameID := *flagGame
	if gameID == "" {
		if gameID, err = newGame(ctx, api); err != nil {
			klog.Fatal(err)
		}
		fmt.Fprintf(l.Stdout(), "Created game %s\n", gameID)
	}

	s := session.New(session.DefaultConfig(connection.WebsocketOrigin(base)), self)
	if err := s.Join(ctx, gameID, tokens.Access); err != nil {
		klog.Fatal(err)
	}
	defer s.Leave()

	c := &console.Console{Game: s, Out: l.Stdout()}
	if err := c.Run(ctx, l); err != nil {
		klog.Errorf("console: %v", err)
	}
}

// newGame creates and starts a game with the remaining seats taken by AI
// players.
func newGame(ctx context.Context, api *adminapi.Client) (string, error) {
	setup := lobby.NewSetup(api)
	if _, err := setup.LoadRuleSets(ctx); err != nil {
		klog.Warningf("newGame: %v", err)
	}
	setup.Update(func(s *lobby.Settings) {
		s.MaxPlayers = *flagPlayers
		s.UseAI = true
		if *flagRuleSet != "" {
			s.RuleSetID = *flagRuleSet
		}
	})
	id, err := setup.Create(ctx)
	if err != nil {
		return "", err
	}
	if err := setup.Start(ctx); err != nil {
		return "", err
	}
	return id, nil
}
