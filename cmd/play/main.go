// Command play pits a human, entering moves on stdin as "r,c-r,c", against
// a tafl.Engine. Grounded on the teacher's cmd/infer/main.go REPL loop
// (bufio.Scanner over stdin, printing the board after each move), with the
// chess-specific model-loading flags replaced by an evaluator-selection
// flag since this module has no training/checkpoint pipeline (Non-goal).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/jgslunde/brandubh-az/board"
	"github.com/jgslunde/brandubh-az/evaluator"
	"github.com/jgslunde/brandubh-az/neural"
	"github.com/jgslunde/brandubh-az/tafl"
)

var (
	humanSide   = flag.String("side", "attacker", "side the human plays: attacker or defender")
	simulations = flag.Int("simulations", 200, "MCTS simulations per engine move")
	evalKind    = flag.String("evaluator", "random", "evaluator backend: uniform, random or neural")
	seed        = flag.Int64("seed", 1, "random seed for move sampling and the random evaluator")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	side, err := parseSide(*humanSide)
	if err != nil {
		log.Fatalf("play: %s", err)
	}
	eval, err := buildEvaluator(*evalKind, *seed)
	if err != nil {
		log.Fatalf("play: %s", err)
	}
	if closer, ok := eval.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	conf := tafl.DefaultConfig()
	conf.Simulations = *simulations
	conf.Rand = rand.New(rand.NewSource(*seed))
	conf.LogOutput = os.Stderr
	eng := tafl.NewEngine(eval, conf)

	pos := board.Initial()
	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print(pos.String())
		if outcome := board.IsTerminal(pos); outcome != board.NotOver {
			fmt.Printf("game over: %s\n", outcomeString(outcome))
			return
		}

		if pos.Side() == side {
			fmt.Print("your move (r,c-r,c): ")
			if !scanner.Scan() {
				return
			}
			mv, err := parseMove(scanner.Text())
			if err != nil {
				fmt.Printf("invalid move: %s\n", err)
				continue
			}
			next, err := board.Apply(pos, mv)
			if err != nil {
				fmt.Printf("illegal move: %s\n", err)
				continue
			}
			pos = next
			continue
		}

		mv, _, err := eng.BestMove(ctx, pos, pos.Side())
		if err != nil {
			log.Fatalf("play: engine move failed: %s", err)
		}
		fmt.Printf("engine plays %s\n", mv)
		next, err := board.Apply(pos, mv)
		if err != nil {
			log.Fatalf("play: engine produced illegal move: %s", err)
		}
		pos = next
	}
}

func parseSide(s string) (board.Side, error) {
	switch strings.ToLower(s) {
	case "attacker":
		return board.AttackerSide, nil
	case "defender":
		return board.DefenderSide, nil
	}
	return 0, fmt.Errorf("unknown side %q (want attacker or defender)", s)
}

func parseMove(s string) (board.Move, error) {
	s = strings.TrimSpace(s)
	halves := strings.SplitN(s, "-", 2)
	if len(halves) != 2 {
		return board.Move{}, fmt.Errorf("expected form r,c-r,c, got %q", s)
	}
	fr, fc, err := parseCoord(halves[0])
	if err != nil {
		return board.Move{}, err
	}
	tr, tc, err := parseCoord(halves[1])
	if err != nil {
		return board.Move{}, err
	}
	return board.Move{FromRow: fr, FromCol: fc, ToRow: tr, ToCol: tc}, nil
}

func parseCoord(s string) (int, int, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected r,c, got %q", s)
	}
	r, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad row in %q: %w", s, err)
	}
	c, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad col in %q: %w", s, err)
	}
	return r, c, nil
}

func outcomeString(o board.Outcome) string {
	switch o {
	case board.AttackerWins:
		return "attacker wins"
	case board.DefenderWins:
		return "defender wins"
	}
	return "unknown"
}

func buildEvaluator(kind string, seed int64) (evaluator.Evaluator, error) {
	switch strings.ToLower(kind) {
	case "uniform":
		return evaluator.Uniform{}, nil
	case "random":
		return evaluator.Random{Source: rand.New(rand.NewSource(seed))}, nil
	case "neural":
		net := neural.New(neural.DefaultConfig())
		if err := net.Init(); err != nil {
			return nil, fmt.Errorf("initializing neural evaluator: %w", err)
		}
		return net, nil
	}
	return nil, fmt.Errorf("unknown evaluator %q (want uniform, random or neural)", kind)
}
