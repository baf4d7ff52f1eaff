package control

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	lev "github.com/agnivade/levenshtein"
	"github.com/dustin/go-humanize"

	"watchface/face"
)

var commandNames = []string{"WAKE", "SLEEP", "TICK", "AMBIENT", "STATUS", "HELP", "BYE"}

// Suggestions only fire for near misses; anything further away than this is
// probably not a typo.
const maxSuggestDistance = 2

const maxTickBatch = 3600

// maxAmbientOffset bounds how far ahead an AMBIENT command may place the
// refresh instant.
const maxAmbientOffset = 86400

// dispatch executes one command line and returns the reply lines plus
// whether the session should end.
func (s *Server) dispatch(line string) ([]string, bool) {
	fields := strings.Fields(line)
	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch cmd {
	case "WAKE":
		st := s.ctrl.Wake()
		return []string{stateLine("OK", st)}, false

	case "SLEEP":
		st := s.ctrl.Sleep()
		return []string{stateLine("OK", st)}, false

	case "TICK":
		return s.runTicks(args), false

	case "AMBIENT":
		return s.runAmbient(args), false

	case "STATUS":
		return s.statusLines(), false

	case "HELP":
		return helpLines(), false

	case "BYE":
		return []string{"bye"}, true

	default:
		reply := fmt.Sprintf("Unknown command %q", cmd)
		if hint, ok := suggestCommand(cmd); ok {
			reply += fmt.Sprintf(". Did you mean %s?", hint)
		}
		return []string{reply}, false
	}
}

// runTicks posts up to maxTickBatch ticks at the clock's current instant.
// While Ambient the controller ignores them; the reply reflects that by
// carrying an unchanged draw count.
func (s *Server) runTicks(args []string) []string {
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return []string{fmt.Sprintf("error: tick count %q must be a positive integer", args[0])}
		}
		if n > maxTickBatch {
			return []string{fmt.Sprintf("error: tick count %d exceeds limit %d", n, maxTickBatch)}
		}
		count = n
	}

	var st face.State
	for i := 0; i < count; i++ {
		var err error
		st, err = s.ctrl.Tick(s.clock.Now())
		if err != nil {
			return []string{fmt.Sprintf("error: %v", err)}
		}
	}
	return []string{stateLine(fmt.Sprintf("OK ticked %d", count), st)}
}

// runAmbient delivers one ambient update, optionally at an instant the given
// number of seconds ahead of the clock. The offset stands in for a broadcast
// that announces a future refresh instant.
func (s *Server) runAmbient(args []string) []string {
	at := s.clock.Now()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return []string{fmt.Sprintf("error: ambient offset %q must be a non-negative integer", args[0])}
		}
		if n > maxAmbientOffset {
			return []string{fmt.Sprintf("error: ambient offset %d exceeds limit %d", n, maxAmbientOffset)}
		}
		at = at.Add(time.Duration(n) * time.Second)
	}
	st, err := s.ctrl.AmbientUpdate(at)
	if err != nil {
		return []string{fmt.Sprintf("error: %v", err)}
	}
	return []string{stateLine("OK", st)}
}

func (s *Server) statusLines() []string {
	st := s.ctrl.Snapshot()
	counts := s.ctrl.CounterSnapshot()
	now := time.Now().UTC()
	return []string{
		fmt.Sprintf("mode: %s", st.Mode),
		fmt.Sprintf("elapsed: %s", st.Elapsed),
		fmt.Sprintf("instant: %s", st.Instant.UTC().Format(time.RFC3339)),
		fmt.Sprintf("draws: %s (tick %s, ambient %s)",
			humanize.Comma(int64(counts.Draws)),
			humanize.Comma(int64(counts.TickDraws)),
			humanize.Comma(int64(counts.AmbientDraws))),
		fmt.Sprintf("transitions: %d wakes, %d sleeps", counts.Wakes, counts.Sleeps),
		fmt.Sprintf("ignored: %d ticks, %d ambient updates",
			counts.TicksIgnored, counts.AmbientIgnored),
		fmt.Sprintf("up: since %s (%s)",
			s.startedAt.Format(time.RFC3339), humanize.RelTime(s.startedAt, now, "ago", "from now")),
	}
}

func helpLines() []string {
	return []string{
		"WAKE          switch to Active (redraws once on transition)",
		"SLEEP         switch to Ambient (redraws once on transition)",
		"TICK [n]      deliver n active refresh ticks (default 1)",
		"AMBIENT [s]   deliver one ambient update, optionally s seconds ahead",
		"STATUS        show mode, elapsed time, and draw counters",
		"HELP          this text",
		"BYE           close the session",
	}
}

// suggestCommand finds the closest known command within the edit-distance
// budget.
func suggestCommand(input string) (string, bool) {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, name := range commandNames {
		d := lev.ComputeDistance(input, name)
		if d < bestDist {
			best = name
			bestDist = d
		}
	}
	return best, best != ""
}

func stateLine(prefix string, st face.State) string {
	return fmt.Sprintf("%s mode=%s elapsed=%s draws=%d", prefix, st.Mode, st.Elapsed, st.Draws)
}
