// Command selfplay runs a tafl.Engine against itself for a fixed number of
// games and reports outcomes, standing in for the teacher's Arena.Play minus
// recording and training (both Non-goals). Grounded on arena.go's Play loop
// (search, apply, switch player, repeat until Ended) and cmd/train/main.go's
// flag handling.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/jgslunde/brandubh-az/board"
	"github.com/jgslunde/brandubh-az/evaluator"
	"github.com/jgslunde/brandubh-az/neural"
	"github.com/jgslunde/brandubh-az/tafl"
)

var (
	numGames    = flag.Int("games", 10, "number of self-play games to run")
	simulations = flag.Int("simulations", 100, "MCTS simulations per move")
	maxPlies    = flag.Int("max_plies", 400, "safety cap on plies per game")
	evalKind    = flag.String("evaluator", "random", "evaluator backend: uniform, random or neural")
	seed        = flag.Int64("seed", 1, "random seed for move sampling and the random evaluator")
	verbose     = flag.Bool("verbose", false, "print the board after every move")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	eval, err := buildEvaluator(*evalKind, *seed)
	if err != nil {
		log.Fatalf("selfplay: %s", err)
	}
	if closer, ok := eval.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	conf := tafl.DefaultConfig()
	conf.Simulations = *simulations
	conf.Rand = rand.New(rand.NewSource(*seed))
	if *verbose {
		conf.LogOutput = os.Stderr
	}

	var attackerWins, defenderWins, undecided int
	ctx := context.Background()

	for game := 0; game < *numGames; game++ {
		eng := tafl.NewEngine(eval, conf)
		pos := board.Initial()
		ply := 0

		for ; ply < *maxPlies; ply++ {
			if outcome := board.IsTerminal(pos); outcome != board.NotOver {
				recordOutcome(outcome, &attackerWins, &defenderWins)
				break
			}
			mv, _, err := eng.BestMove(ctx, pos, pos.Side())
			if err != nil {
				log.Fatalf("selfplay: game %d: engine move failed: %s", game, err)
			}
			next, err := board.Apply(pos, mv)
			if err != nil {
				log.Fatalf("selfplay: game %d: engine produced illegal move: %s", game, err)
			}
			pos = next
			if *verbose {
				fmt.Print(pos.String())
			}
		}
		if ply == *maxPlies {
			undecided++
		}
		log.Printf("game %d finished after %d plies", game, ply)
	}

	fmt.Printf("games=%d attacker_wins=%d defender_wins=%d undecided=%d\n",
		*numGames, attackerWins, defenderWins, undecided)
}

func recordOutcome(outcome board.Outcome, attackerWins, defenderWins *int) {
	switch outcome {
	case board.AttackerWins:
		*attackerWins++
	case board.DefenderWins:
		*defenderWins++
	}
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
