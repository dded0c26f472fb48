package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/statistics"
)

// Config holds configuration for running simulations
type Config struct {
	Games   int
	Rounds  int // rounds per game
	Seats   int // computer seats per game, dealer excluded
	Mode    game.Mode
	Seed    int64
	Timeout time.Duration // per-game hang protection
	Logger  *log.Logger
}

// Simulator runs headless all-computer blackjack games
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	return &Simulator{config: config}
}

// Run executes the simulation and returns results. Each game gets an
// independent seed derived from the configured one so any single game can be
// replayed in isolation.
func (s *Simulator) Run() (*statistics.Statistics, error) {
	stats := &statistics.Statistics{}

	for i := 0; i < s.config.Games; i++ {
		gameSeed := s.config.Seed + int64(i)
		result, err := s.playGameWithTimeout(gameSeed)
		if err != nil {
			return nil, fmt.Errorf("hang detected on game %d: %w", i+1, err)
		}
		stats.Add(result)
	}

	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

// playGameWithTimeout runs a single game with hang protection. A game at
// zero pacing finishes in microseconds, so hitting the timeout means the
// orchestrator deadlocked.
func (s *Simulator) playGameWithTimeout(gameSeed int64) (statistics.GameResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	resultCh := make(chan statistics.GameResult, 1)
	errCh := make(chan error, 1)

	go func() {
		result, err := s.playGame(ctx, gameSeed)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result, nil
	case err := <-errCh:
		return statistics.GameResult{}, err
	case <-ctx.Done():
		return statistics.GameResult{}, fmt.Errorf("game timed out after %v (seed: %d)", s.config.Timeout, gameSeed)
	}
}

// playGame plays one complete game to its rounds target and tallies every
// seat's outcomes from the settlement events.
func (s *Simulator) playGame(ctx context.Context, gameSeed int64) (statistics.GameResult, error) {
	seats := make([]game.SeatConfig, s.config.Seats)
	for i := range seats {
		seats[i] = game.SeatConfig{Type: game.SeatComputer}
	}

	table, err := game.NewTable(game.Config{
		Seats:        seats,
		Mode:         s.config.Mode,
		RoundsTarget: s.config.Rounds,
	}, deck.NewShoe(randutil.New(gameSeed)))
	if err != nil {
		return statistics.GameResult{}, err
	}

	start := table.Snapshot()
	outcomes := make([]statistics.SeatOutcome, len(start.Seats))
	for i, seat := range start.Seats {
		outcomes[i] = statistics.SeatOutcome{Name: seat.Name, Dealer: seat.Dealer}
	}

	tally := game.SubscriberFunc(func(event game.Event) {
		settled, ok := event.(game.RoundSettledEvent)
		if !ok {
			return
		}
		for i, seat := range settled.State().Seats {
			switch seat.Result {
			case "win":
				outcomes[i].Wins++
			case "lose":
				outcomes[i].Losses++
			case "draw":
				outcomes[i].Draws++
			}
			switch seat.Status {
			case "blackjack":
				outcomes[i].Naturals++
			case "bust":
				outcomes[i].Busts++
			}
		}
	})

	o := game.NewOrchestrator(table, game.NewPolicy(randutil.New(gameSeed+1)), s.config.Logger,
		game.WithDelays(game.Delays{}),
		game.WithAutoAdvance(true),
	)
	o.Bus().Subscribe(tally)

	if err := o.Run(ctx); err != nil {
		return statistics.GameResult{}, err
	}

	final := o.Snapshot()
	for i, seat := range final.Seats {
		outcomes[i].NetChips = seat.Chips - start.Seats[i].Chips
		outcomes[i].Points = seat.Points
	}

	return statistics.GameResult{
		Seed:   gameSeed,
		Rounds: final.Round,
		Seats:  outcomes,
	}, nil
}

// RunSimulation is a convenience function for running a simulation with basic
// parameters
func RunSimulation(games, rounds, seats int, mode game.Mode, seed int64, timeout time.Duration, logger *log.Logger) (*statistics.Statistics, error) {
	return New(Config{
		Games:   games,
		Rounds:  rounds,
		Seats:   seats,
		Mode:    mode,
		Seed:    seed,
		Timeout: timeout,
		Logger:  logger,
	}).Run()
}

// PrintSummary prints a summary of simulation results
func PrintSummary(stats *statistics.Statistics) {
	fmt.Printf("\n=== SIMULATION RESULTS ===\n")
	fmt.Printf("Games played: %d\n", stats.Games)
	fmt.Printf("Rounds played: %d\n", stats.Rounds)

	fmt.Printf("\n=== FIRST SEAT NET CHIPS ===\n")
	low, high := stats.ConfidenceInterval95()
	fmt.Printf("Mean: %.2f chips/game\n", stats.Mean())
	fmt.Printf("Median: %.2f chips/game\n", stats.Median())
	fmt.Printf("Std Dev: %.2f chips\n", stats.StdDev())
	fmt.Printf("95%% CI: [%.2f, %.2f] chips/game\n", low, high)
	fmt.Printf("Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Printf("\n=== SEAT ANALYSIS ===\n")
	for i, seat := range stats.Seats {
		if seat.Dealer {
			fmt.Printf("%s: net %+d chips\n", seat.Name, seat.NetChips)
			continue
		}
		settled := seat.Wins + seat.Losses + seat.Draws
		fmt.Printf("%s: %d rounds, %.1f%% win, %d naturals, %d busts, net %+d chips\n",
			seat.Name, settled, stats.WinRate(i)*100, seat.Naturals, seat.Busts, seat.NetChips)
	}
}
