package main

import (
	"testing"

	"wowsim-core/internal/runner"
)

func TestParseDeltas(t *testing.T) {
	defaults := []runner.StatDelta{{Stat: "crit_rating", Delta: 14}}
	got, err := parseDeltas([]string{"crit_rating", "spell_power=25", "hit_rating"}, defaults)
	if err != nil {
		t.Fatal(err)
	}
	want := []runner.StatDelta{{Stat: "crit_rating", Delta: 14}, {Stat: "spell_power", Delta: 25}, {Stat: "hit_rating", Delta: 10}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delta %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if _, err := parseDeltas([]string{"luck"}, nil); err == nil {
		t.Error("expected unknown stat error")
	}
	if _, err := parseDeltas([]string{"spell_power=x"}, nil); err == nil {
		t.Error("expected bad delta error")
	}
}
