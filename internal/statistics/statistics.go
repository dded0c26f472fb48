package statistics

import (
	"fmt"
	"math"
	"sort"
)

// SeatOutcome is one seat's tally across a single game
type SeatOutcome struct {
	Name     string
	Dealer   bool
	Wins     int
	Losses   int
	Draws    int
	Naturals int
	Busts    int
	NetChips int     // final chips minus starting chips
	Points   float64 // final points, points mode only
}

// GameResult represents the outcome of one complete game
type GameResult struct {
	Seed   int64 // RNG seed for this game (for replay)
	Rounds int
	Seats  []SeatOutcome
}

// SeatStats accumulates per-seat totals across games
type SeatStats struct {
	Name     string
	Dealer   bool
	Wins     int
	Losses   int
	Draws    int
	Naturals int
	Busts    int
	NetChips int
}

// Statistics tracks blackjack simulation results across many games. The
// headline series is the first seat's net chips per game; per-seat counters
// cover every seat including the dealer.
type Statistics struct {
	Games  int
	Rounds int

	SumNet  float64
	SumNet2 float64   // sum of squares for variance calculation
	Values  []float64 // all first-seat nets, for median/percentile

	Seats []SeatStats
}

// Add incorporates a game result into the statistics
func (s *Statistics) Add(result GameResult) {
	s.Games++
	s.Rounds += result.Rounds

	if len(s.Seats) == 0 {
		s.Seats = make([]SeatStats, len(result.Seats))
		for i, seat := range result.Seats {
			s.Seats[i].Name = seat.Name
			s.Seats[i].Dealer = seat.Dealer
		}
	}

	for i, seat := range result.Seats {
		s.Seats[i].Wins += seat.Wins
		s.Seats[i].Losses += seat.Losses
		s.Seats[i].Draws += seat.Draws
		s.Seats[i].Naturals += seat.Naturals
		s.Seats[i].Busts += seat.Busts
		s.Seats[i].NetChips += seat.NetChips
	}

	if len(result.Seats) > 0 {
		net := float64(result.Seats[0].NetChips)
		s.SumNet += net
		s.SumNet2 += net * net
		s.Values = append(s.Values, net)
	}
}

// Mean returns the mean first-seat net chips per game
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumNet / float64(s.Games)
}

// Variance returns the sample variance of first-seat net chips
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of first-seat net chips
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median first-seat net chips per game
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the given percentile (0..1) of first-seat net chips
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// WinRate returns a seat's wins as a fraction of its settled rounds
func (s *Statistics) WinRate(seat int) float64 {
	if seat < 0 || seat >= len(s.Seats) {
		return 0
	}
	st := s.Seats[seat]
	settled := st.Wins + st.Losses + st.Draws
	if settled == 0 {
		return 0
	}
	return float64(st.Wins) / float64(settled)
}

// Validate checks internal consistency of the accumulated statistics. Chips
// flow between seats and the dealer, so across any number of games the net
// deltas must sum to zero.
func (s *Statistics) Validate() error {
	if s.Games != len(s.Values) && len(s.Values) != 0 {
		return fmt.Errorf("value count %d does not match game count %d", len(s.Values), s.Games)
	}
	total := 0
	for _, st := range s.Seats {
		total += st.NetChips
	}
	if total != 0 {
		return fmt.Errorf("chip deltas sum to %d, want 0", total)
	}
	return nil
}
