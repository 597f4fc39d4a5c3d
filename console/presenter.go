// console/presenter.go
package console

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/round"
	"github.com/wfunc/impostor/state"
)

var (
	highlight = color.New(color.FgHiCyan).SprintFunc()
	secret    = color.New(color.FgHiYellow, color.Bold).SprintFunc()
	good      = color.New(color.FgHiGreen).SprintFunc()
	bad       = color.New(color.FgHiRed).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
)

// Presenter 把会话事件打印到终端。回调在会话循环上执行。
type Presenter struct {
	out     io.Writer
	localID uint64
	names   map[uint64]string
}

func NewPresenter(out io.Writer, localID uint64) *Presenter {
	return &Presenter{out: out, localID: localID, names: make(map[uint64]string)}
}

var _ game.Observer = (*Presenter)(nil)

func (p *Presenter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Presenter) name(id uint64) string {
	n, ok := p.names[id]
	if !ok {
		n = "#" + strconv.FormatUint(id, 10)
	}
	if id == p.localID {
		n += " (you)"
	}
	return n
}

func (p *Presenter) OnPlayerJoined(id uint64, name string) {
	p.names[id] = name
	if id == p.localID {
		return
	}
	p.printf("%s %s joined %s", good("+"), p.name(id), faint("[id "+strconv.FormatUint(id, 10)+"]"))
}

func (p *Presenter) OnPlayerLeft(id uint64) {
	p.printf("%s %s left", bad("-"), p.name(id))
}

func (p *Presenter) OnStateChanged(_, to state.Phase) {
	p.printf("%s", highlight("== "+to.String()+" =="))
	switch to {
	case state.PhaseWaitingForReady:
		p.printf("Type %s when you are ready.", highlight("ready"))
	case state.PhaseRoundResults:
		p.printf("The host continues with %s.", highlight("next"))
	}
}

func (p *Presenter) OnRoleAssigned(id uint64, role roster.Role) {
	if id != p.localID {
		return
	}
	if role == roster.RoleImpostor {
		p.printf("You are the %s. Blend in.", bad("IMPOSTOR"))
		return
	}
	p.printf("You are a %s.", good("civilian"))
}

func (p *Presenter) OnRoundStarted(n int, word string) {
	p.printf("Round %d.", n)
	switch word {
	case round.ImpostorMarker:
		p.printf("You do not know the word. Listen and bluff.")
	case "":
	default:
		p.printf("The secret word is %s.", secret(word))
	}
	p.printf("Give a clue with %s when it is your turn.", highlight("clue <word>"))
}

func (p *Presenter) OnClueSubmitted(id uint64, clue string) {
	p.printf("%s: %s", p.name(id), secret(clue))
}

func (p *Presenter) OnAllCluesSubmitted() {
	p.printf("All clues are in.")
}

func (p *Presenter) OnVotingStarted(deadline time.Time) {
	ids := make([]uint64, 0, len(p.names))
	for id := range p.names {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, " %d=%s", id, p.names[id])
	}
	p.printf("Voting until %s. Use %s or %s.", deadline.Format("15:04:05"), highlight("vote <id>"), highlight("vote skip"))
	p.printf("%s", faint("players:"+b.String()))
}

func (p *Presenter) OnVoteCast(voter, target uint64) {
	if target == roster.Abstain {
		p.printf("%s abstained", p.name(voter))
		return
	}
	p.printf("%s voted for %s", p.name(voter), p.name(target))
}

func (p *Presenter) OnVotingEnded(eliminated uint64, wasImpostor bool) {
	switch {
	case eliminated == roster.Abstain:
		p.printf("Nobody was eliminated.")
	case wasImpostor:
		p.printf("%s was eliminated. They were %s!", p.name(eliminated), bad("the impostor"))
	default:
		p.printf("%s was eliminated. They were %s.", p.name(eliminated), good("a civilian"))
	}
}

func (p *Presenter) OnGameEnded(impostorsWon bool, impostorIDs []uint64) {
	names := make([]string, 0, len(impostorIDs))
	for _, id := range impostorIDs {
		names = append(names, p.name(id))
	}
	if impostorsWon {
		p.printf("%s Impostors: %s", bad("Impostors win!"), strings.Join(names, ", "))
		return
	}
	p.printf("%s Impostors: %s", good("Civilians win!"), strings.Join(names, ", "))
}

func (p *Presenter) OnActionRejected(action, reason string) {
	p.printf("%s %s: %s", bad("refused"), action, reason)
}

// PrintSnapshot writes a short status block.
func PrintSnapshot(out io.Writer, snap game.Snapshot) {
	fmt.Fprintf(out, "phase %s, round %d of %d\n", snap.Phase, snap.RoundNumber, snap.MaxRounds)
	if snap.LocalWord != "" {
		fmt.Fprintf(out, "your word: %s\n", secret(snap.LocalWord))
	}
	for _, pl := range snap.Players {
		var tags []string
		if pl.ID == snap.LocalID {
			tags = append(tags, "you")
		}
		if pl.ID == snap.CurrentPlayer && snap.Phase == state.PhaseInGame {
			tags = append(tags, "turn")
		}
		if pl.Ready {
			tags = append(tags, "ready")
		}
		if pl.Eliminated {
			tags = append(tags, "out")
		}
		if c, ok := snap.Clues[pl.ID]; ok {
			tags = append(tags, "clue="+c)
		}
		if n := snap.VoteCounts[pl.ID]; n > 0 {
			tags = append(tags, "votes="+strconv.Itoa(n))
		}
		fmt.Fprintf(out, "  %d %s %s\n", pl.ID, pl.Name, faint(strings.Join(tags, " ")))
	}
	if snap.VoteRemaining > 0 {
		fmt.Fprintf(out, "voting closes in %s\n", snap.VoteRemaining.Round(time.Second))
	}
}
