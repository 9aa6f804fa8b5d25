package app

import (
	"sort"
	"strconv"
	"strings"

	"quiz-bot/internal/domain"
)

// ScoreBoard tracks one session's scores keyed by player ID. Its key set is fixed at
// initialization; ties rank in enrollment order.
type ScoreBoard struct {
	entries []scoreEntry
	index   map[string]int
}

type scoreEntry struct {
	player domain.Player
	score  int
}

func NewScoreBoard(players []domain.Player) *ScoreBoard {
	b := &ScoreBoard{}
	b.Initialize(players)
	return b
}

// Initialize resets every player to zero, replacing any previous state.
func (b *ScoreBoard) Initialize(players []domain.Player) {
	b.entries = make([]scoreEntry, 0, len(players))
	b.index = make(map[string]int, len(players))
	for _, p := range players {
		if _, dup := b.index[p.ID]; dup {
			continue
		}
		b.index[p.ID] = len(b.entries)
		b.entries = append(b.entries, scoreEntry{player: p})
	}
}

// Apply scores one round: absent -1, trimmed answer equal to the correct 1-based position +1,
// anything else unchanged. A result that does not cover exactly the enrolled players is rejected
// without touching any score.
func (b *ScoreBoard) Apply(result domain.RoundResult, correctPosition int) error {
	if len(result) != len(b.entries) {
		return domain.ErrResultMismatch
	}
	for id := range result {
		if _, ok := b.index[id]; !ok {
			return domain.ErrResultMismatch
		}
	}

	want := strconv.Itoa(correctPosition)
	for i := range b.entries {
		answer := result[b.entries[i].player.ID]
		switch {
		case !answer.Submitted():
			b.entries[i].score--
		case strings.TrimSpace(answer.Text) == want:
			b.entries[i].score++
		}
	}
	return nil
}

// Score returns a player's current score.
func (b *ScoreBoard) Score(playerID string) (int, bool) {
	i, ok := b.index[playerID]
	if !ok {
		return 0, false
	}
	return b.entries[i].score, true
}

func (b *ScoreBoard) Len() int {
	return len(b.entries)
}

// TopN returns at most n standings.
func (b *ScoreBoard) TopN(n int) []domain.Standing {
	ranked := b.AllRanked()
	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// AllRanked returns every player ordered by descending score.
func (b *ScoreBoard) AllRanked() []domain.Standing {
	ordered := make([]scoreEntry, len(b.entries))
	copy(ordered, b.entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].score > ordered[j].score
	})

	standings := make([]domain.Standing, len(ordered))
	for i, e := range ordered {
		standings[i] = domain.Standing{Rank: i + 1, Player: e.player, Score: e.score}
	}
	return standings
}
