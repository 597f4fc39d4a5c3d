// console/command.go
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/room"
	"github.com/wfunc/impostor/roster"
)

type Kind int

const (
	CmdHelp Kind = iota
	CmdQuit
	CmdStatus
	CmdReady
	CmdUnready
	CmdCheck
	CmdStart
	CmdClue
	CmdVote
	CmdNext
)

var ErrUnknownCommand = errors.New("unknown command")

type Command struct {
	Kind   Kind
	Clue   string
	Target uint64
}

const help = `commands:
  ready | unready     toggle readiness
  check               (host) ask everyone to ready up
  start               (host) deal roles and start
  clue <word>         give your clue on your turn
  vote <id> | vote skip
  next                (host) continue after results
  status              show the table
  quit`

// Parse turns one input line into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}
	switch strings.ToLower(fields[0]) {
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit":
		return Command{Kind: CmdQuit}, nil
	case "status":
		return Command{Kind: CmdStatus}, nil
	case "ready":
		return Command{Kind: CmdReady}, nil
	case "unready":
		return Command{Kind: CmdUnready}, nil
	case "check":
		return Command{Kind: CmdCheck}, nil
	case "start":
		return Command{Kind: CmdStart}, nil
	case "next":
		return Command{Kind: CmdNext}, nil
	case "clue":
		if len(fields) < 2 {
			return Command{}, errors.New("usage: clue <word>")
		}
		return Command{Kind: CmdClue, Clue: strings.Join(fields[1:], " ")}, nil
	case "vote":
		if len(fields) != 2 {
			return Command{}, errors.New("usage: vote <id> | vote skip")
		}
		if strings.EqualFold(fields[1], "skip") {
			return Command{Kind: CmdVote, Target: roster.Abstain}, nil
		}
		id, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return Command{}, fmt.Errorf("bad player id %q", fields[1])
		}
		return Command{Kind: CmdVote, Target: id}, nil
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
}

// Apply runs c against s. It must be called on the session's loop.
func (c Command) Apply(s *game.Session, out io.Writer) error {
	switch c.Kind {
	case CmdHelp:
		fmt.Fprintln(out, help)
	case CmdStatus:
		PrintSnapshot(out, s.Snapshot())
	case CmdReady:
		return s.SetReady(true)
	case CmdUnready:
		return s.SetReady(false)
	case CmdCheck:
		return s.BeginReadyCheck()
	case CmdStart:
		return s.StartGame()
	case CmdClue:
		return s.SubmitClue(c.Clue)
	case CmdVote:
		return s.CastVote(c.Target)
	case CmdNext:
		return s.NextRound()
	}
	return nil
}

// Run reads commands from in until quit, EOF or ctx ends, executing each on
// the room loop.
func Run(ctx context.Context, in io.Reader, out io.Writer, r *room.Room) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, "type help for commands")
	for {
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := Parse(line)
		if err != nil {
			fmt.Fprintln(out, bad(err.Error()))
			continue
		}
		if cmd.Kind == CmdQuit {
			return nil
		}

		var applyErr error
		if err := r.Do(ctx, func(s *game.Session) { applyErr = cmd.Apply(s, out) }); err != nil {
			return err
		}
		if applyErr != nil {
			fmt.Fprintln(out, bad(applyErr.Error()))
		}
	}
}
