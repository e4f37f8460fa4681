package watch

import (
	"strings"
	"testing"

	"github.com/sprocketaudio/mctelemetry/internal/telemetry"
)

func f(v float64) *float64 { return &v }

func TestLevelOf(t *testing.T) {
	cases := []struct {
		tps  *float64
		want Level
	}{
		{nil, LevelUnknown},
		{f(20), LevelGood},
		{f(19.5), LevelGood},
		{f(17), LevelStrained},
		{f(15), LevelStrained},
		{f(7.1), LevelLagging},
	}
	for _, tc := range cases {
		if got := LevelOf(tc.tps); got != tc.want {
			t.Errorf("LevelOf(%v)=%v, want %v", tc.tps, got, tc.want)
		}
	}
}

func TestSummary(t *testing.T) {
	p := telemetry.Payload{
		MC: "1.20.1", Loader: "forge", MSPT: f(25), TPS: f(20),
		Players: []telemetry.PayloadPlayer{{Name: "Ari", UUID: "a"}, {Name: "Bo", UUID: "b"}},
	}
	want := "mc=1.20.1 loader=forge mspt=25.0 tps=20.0 players=2 [Ari, Bo]"
	if got := Summary(p, false); got != want {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := Summary(p, true); !strings.Contains(got, colorGreen+"tps=20.0"+colorReset) {
		t.Fatalf("expected green tps, got %q", got)
	}

	empty := telemetry.Payload{MC: "1.20.1", Loader: "forge", Players: []telemetry.PayloadPlayer{}}
	if got := Summary(empty, false); got != "mc=1.20.1 loader=forge mspt=n/a tps=n/a players=0 []" {
		t.Fatalf("unexpected summary for null metrics %q", got)
	}
}
