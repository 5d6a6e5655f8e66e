// Package console is a terminal client for a game session.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cardtable/webclient/internal/game"
	"github.com/cardtable/webclient/internal/gate"
	"github.com/cardtable/webclient/internal/interaction"
	"github.com/chzyer/readline"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Game is the part of a session the console drives. *session.Session
// implements it.
type Game interface {
	Local() game.Local
	Mode() interaction.Mode
	Gate() *gate.Gate
	Listen(key string, fn func())
	Forget(key string)
}

// Command is a parsed console line.
type Command struct {
	Name   string
	Card   game.Card
	Suit   game.Suit
	Target string
	Choice game.CounterChoice
	Order  game.SortOrder
}

// Commands with their usage, in help order.
var Commands = [][2]string{
	{"play", "play <card>, e.g. play 10h"},
	{"draw", "draw a card"},
	{"pass", "pass the turn"},
	{"one", "announce one card"},
	{"suit", "suit <hearts|diamonds|clubs|spades>"},
	{"target", "target <player id>"},
	{"counter", "counter <accept|counter>"},
	{"sort", "sort <suit|value>"},
	{"state", "show the table"},
	{"help", "show this help"},
	{"quit", "leave the game"},
}

// ErrUsage wraps all parse errors.
var ErrUsage = errors.New("usage")

func usage(name string) error {
	for _, c := range Commands {
		if c[0] == name {
			return fmt.Errorf("%w: %s", ErrUsage, c[1])
		}
	}
	return fmt.Errorf("%w: unknown command %q, try help", ErrUsage, name)
}

// Parse reads a console line. An empty line parses as "state".
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Name: "state"}, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "exit":
		name = "quit"
	case "?":
		name = "help"
	}
	cmd := Command{Name: name}
	switch name {
	case "draw", "pass", "one", "state", "help", "quit":
		if len(args) != 0 {
			return Command{}, usage(name)
		}
	case "play":
		if len(args) != 1 {
			return Command{}, usage(name)
		}
		c, err := game.ParseCard(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %w", ErrUsage, err)
		}
		cmd.Card = c
	case "suit":
		if len(args) != 1 {
			return Command{}, usage(name)
		}
		s, err := game.ParseSuit(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %w", ErrUsage, err)
		}
		cmd.Suit = s
	case "target":
		if len(args) != 1 {
			return Command{}, usage(name)
		}
		cmd.Target = args[0]
	case "counter":
		if len(args) != 1 {
			return Command{}, usage(name)
		}
		choice := game.CounterChoice(strings.ToLower(args[0]))
		if choice != game.Accept && choice != game.Counter {
			return Command{}, usage(name)
		}
		cmd.Choice = choice
	case "sort":
		if len(args) != 1 {
			return Command{}, usage(name)
		}
		order, err := game.ParseSortOrder(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %w", ErrUsage, err)
		}
		cmd.Order = order
	default:
		return Command{}, usage(name)
	}
	return cmd, nil
}

// Console executes commands against a Game and prints to Out.
type Console struct {
	Game  Game
	Out   io.Writer
	Order game.SortOrder // Hand order, BySuit when empty.
}

// Execute runs one line. It returns true when the player asked to quit.
// Parse and gate errors are returned; nothing is sent for them.
func (c *Console) Execute(ctx context.Context, line string) (bool, error) {
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}
	g := c.Game.Gate()
	switch cmd.Name {
	case "quit":
		return true, nil
	case "help":
		for _, h := range Commands {
			fmt.Fprintf(c.Out, "  %-8s %s\n", h[0], h[1])
		}
	case "sort":
		c.Order = cmd.Order
		fmt.Fprint(c.Out, FormatState(c.Game.Local(), c.Game.Mode(), c.Order))
	case "state":
		fmt.Fprint(c.Out, FormatState(c.Game.Local(), c.Game.Mode(), c.Order))
	case "play":
		err = g.PlayCard(ctx, cmd.Card)
	case "draw":
		err = g.DrawCard(ctx)
	case "pass":
		err = g.PassTurn(ctx)
	case "one":
		err = g.AnnounceOneCard(ctx)
	case "suit":
		err = g.ChooseSuit(ctx, cmd.Suit)
	case "target":
		err = g.ChooseTarget(ctx, cmd.Target)
	case "counter":
		err = g.ChooseCounterAction(ctx, cmd.Choice)
	}
	return false, err
}

// Run reads commands until quit, end of input or ctx is done. The prompt
// follows the session state.
func (c *Console) Run(ctx context.Context, l *readline.Instance) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan struct{}, 1)
	c.Game.Listen("console", func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer c.Game.Forget("console")

	lines := make(chan string)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(lines)
		for {
			line, err := l.Readline()
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if err == io.EOF {
				return nil
			} else if err != nil {
				return err
			}
			select {
			case lines <- line:
			case <-gctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		defer l.Close()
		var last game.Local
		for {
			l.SetPrompt(Prompt(c.Game.Local(), c.Game.Mode()))
			l.Refresh()
			select {
			case <-gctx.Done():
				return nil
			case <-updates:
				local := c.Game.Local()
				if changed(last, local) {
					fmt.Fprint(c.Out, FormatState(local, c.Game.Mode(), c.Order))
				}
				last = local
			case line, ok := <-lines:
				if !ok {
					cancel()
					return nil
				}
				quit, err := c.Execute(gctx, line)
				if quit {
					cancel()
					return nil
				}
				if err != nil {
					klog.V(1).Infof("Console.Run: %q: %v", line, err)
					fmt.Fprintf(c.Out, "%s\n", alert(err.Error()))
				}
			}
		}
	})
	return g.Wait()
}

// changed reports whether the table moved enough to be printed again.
func changed(prev, next game.Local) bool {
	if prev.Game == nil || next.Game == nil {
		return prev.Game != next.Game
	}
	if prev.Game.CurrentPlayerID != next.Game.CurrentPlayerID || prev.Game.GameOver != next.Game.GameOver {
		return true
	}
	pt, _ := prev.Game.TopCard()
	nt, _ := next.Game.TopCard()
	if !pt.Equal(nt) {
		return true
	}
	return handSize(prev) != handSize(next)
}

func handSize(l game.Local) int {
	if me := l.Me(); me != nil {
		return me.Size()
	}
	return 0
}
