package traffic

import "testing"

func TestSizeConfig_FixedSize(t *testing.T) {
	cfg := SizeConfig{Sizes: []int{5}}
	if got := cfg.Size(KindAny, nil); got != 5 {
		t.Errorf("expected fixed size 5, got %d", got)
	}
}

func TestSizeConfig_EmptyDefaultsToOne(t *testing.T) {
	var cfg SizeConfig
	if got := cfg.Size(KindAny, nil); got != 1 {
		t.Errorf("expected default size 1, got %d", got)
	}
}

func TestSizeConfig_WeightedTable(t *testing.T) {
	cfg := SizeConfig{Sizes: []int{1, 10}, Rates: []int{1, 1}}
	seen := map[int]bool{}
	draws := []int{0, 1} // first lands in [0,1), second in [1,2)
	i := 0
	draw := func(n int) int {
		v := draws[i]
		i++
		return v
	}
	seen[cfg.Size(KindAny, draw)] = true
	seen[cfg.Size(KindAny, draw)] = true
	if !seen[1] || !seen[10] {
		t.Errorf("expected both candidate sizes to be reachable, got %v", seen)
	}
}

func TestSizeConfig_ReadWriteSplit(t *testing.T) {
	cfg := SizeConfig{
		UseReadWrite:     true,
		ReadRequestSize:  1,
		WriteRequestSize: 8,
		ReadReplySize:    8,
		WriteReplySize:   1,
	}
	cases := map[Kind]int{
		KindReadRequest:  1,
		KindWriteRequest: 8,
		KindReadReply:    8,
		KindWriteReply:   1,
	}
	for kind, want := range cases {
		if got := cfg.Size(kind, nil); got != want {
			t.Errorf("kind %d: got %d, want %d", kind, got, want)
		}
	}
}

func TestNextKind_ExtremeFractions(t *testing.T) {
	if k := NextKind(0, 0, func() float64 { return 0.5 }); k != KindWriteRequest {
		t.Errorf("readFraction=0 should always be a write, got %d", k)
	}
	if k := NextKind(0, 1, func() float64 { return 0.5 }); k != KindReadRequest {
		t.Errorf("readFraction=1 should always be a read, got %d", k)
	}
}

func TestNextKind_DrawDrivesChoice(t *testing.T) {
	below := NextKind(0, 0.5, func() float64 { return 0.1 })
	above := NextKind(0, 0.5, func() float64 { return 0.9 })
	if below != KindReadRequest {
		t.Errorf("draw below fraction should be a read, got %d", below)
	}
	if above != KindWriteRequest {
		t.Errorf("draw above fraction should be a write, got %d", above)
	}
}
