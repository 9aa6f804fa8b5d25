package app

import (
	"errors"
	"reflect"
	"testing"

	"quiz-bot/internal/domain"
)

func players(ids ...string) []domain.Player {
	out := make([]domain.Player, len(ids))
	for i, id := range ids {
		out[i] = domain.Player{ID: id, Name: "name-" + id}
	}
	return out
}

func answered(text string) domain.Answer {
	return domain.Answer{Status: domain.Answered, Text: text}
}

func TestScoreBoardApply(t *testing.T) {
	board := NewScoreBoard(players("a", "b", "c", "d"))

	err := board.Apply(domain.RoundResult{
		"a": answered(" 3\n"),
		"b": {Status: domain.Absent},
		"c": answered("2"),
		"d": {Status: domain.Failed, Err: errors.New("boom")},
	}, 3)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	want := map[string]int{"a": 1, "b": -1, "c": 0, "d": -1}
	for id, score := range want {
		got, ok := board.Score(id)
		if !ok || got != score {
			t.Fatalf("score[%s] = %d (ok=%v), want %d", id, got, ok, score)
		}
	}
}

func TestScoreBoardMatchesIndexNotText(t *testing.T) {
	board := NewScoreBoard(players("a", "b"))
	_ = board.Apply(domain.RoundResult{"a": answered("Paris"), "b": answered("03")}, 3)

	for _, id := range []string{"a", "b"} {
		if got, _ := board.Score(id); got != 0 {
			t.Fatalf("score[%s] = %d, want 0", id, got)
		}
	}
}

func TestScoreBoardScoresGoNegative(t *testing.T) {
	board := NewScoreBoard(players("a"))
	for i := 0; i < 3; i++ {
		if err := board.Apply(domain.RoundResult{"a": {Status: domain.Absent}}, 1); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if got, _ := board.Score("a"); got != -3 {
		t.Fatalf("score = %d, want -3", got)
	}
}

func TestScoreBoardRejectsMismatchedResult(t *testing.T) {
	board := NewScoreBoard(players("a", "b"))

	cases := []domain.RoundResult{
		{"a": answered("1")},
		{"a": answered("1"), "b": answered("1"), "x": answered("1")},
		{"a": answered("1"), "x": answered("1")},
	}
	for _, result := range cases {
		if err := board.Apply(result, 1); !errors.Is(err, domain.ErrResultMismatch) {
			t.Fatalf("expected ErrResultMismatch for %v, got %v", result, err)
		}
	}
	for _, id := range []string{"a", "b"} {
		if got, _ := board.Score(id); got != 0 {
			t.Fatalf("rejected result mutated score[%s] = %d", id, got)
		}
	}
}

func TestScoreBoardRankingIsStable(t *testing.T) {
	board := NewScoreBoard(players("a", "b", "c", "d"))
	_ = board.Apply(domain.RoundResult{
		"a": answered("9"),
		"b": answered("1"),
		"c": answered("9"),
		"d": answered("1"),
	}, 1)

	ranked := board.AllRanked()
	var order []string
	for _, s := range ranked {
		order = append(order, s.Player.ID)
	}
	if !reflect.DeepEqual(order, []string{"b", "d", "a", "c"}) {
		t.Fatalf("unexpected order %v", order)
	}
	for i, s := range ranked {
		if s.Rank != i+1 {
			t.Fatalf("rank at %d = %d", i, s.Rank)
		}
	}

	if again := board.AllRanked(); !reflect.DeepEqual(ranked, again) {
		t.Fatalf("AllRanked not idempotent: %v vs %v", ranked, again)
	}
}

func TestScoreBoardTopN(t *testing.T) {
	board := NewScoreBoard(players("a", "b"))
	_ = board.Apply(domain.RoundResult{"a": {Status: domain.Absent}, "b": answered("2")}, 2)

	top := board.TopN(3)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries for 2 players, got %d", len(top))
	}
	if top[0].Player.ID != "b" || top[0].Score != 1 || top[1].Score != -1 {
		t.Fatalf("unexpected top %+v", top)
	}
	if got := board.TopN(1); len(got) != 1 || got[0].Player.ID != "b" {
		t.Fatalf("unexpected top1 %+v", got)
	}
	if got := board.TopN(0); len(got) != 0 {
		t.Fatalf("expected empty TopN(0), got %+v", got)
	}
}

func TestScoreBoardInitializeReplacesState(t *testing.T) {
	board := NewScoreBoard(players("a"))
	_ = board.Apply(domain.RoundResult{"a": answered("1")}, 1)

	board.Initialize(players("b", "c", "b"))
	if board.Len() != 2 {
		t.Fatalf("expected 2 players after reinitialize, got %d", board.Len())
	}
	if _, ok := board.Score("a"); ok {
		t.Fatalf("expected previous player dropped")
	}
	if got, _ := board.Score("b"); got != 0 {
		t.Fatalf("expected zero score, got %d", got)
	}
}
