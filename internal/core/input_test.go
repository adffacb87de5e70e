package core

import "testing"

func TestActionDirection(t *testing.T) {
	tests := []struct {
		action Action
		dir    Direction
		ok     bool
	}{
		{ActionUp, DirUp, true},
		{ActionDown, DirDown, true},
		{ActionLeft, DirLeft, true},
		{ActionRight, DirRight, true},
		{ActionPause, 0, false},
		{ActionRestart, 0, false},
		{ActionNone, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.action.String(), func(t *testing.T) {
			dir, ok := tc.action.Direction()
			if ok != tc.ok {
				t.Fatalf("Direction() ok = %v, expected %v", ok, tc.ok)
			}
			if ok && dir != tc.dir {
				t.Errorf("Direction() = %v, expected %v", dir, tc.dir)
			}
		})
	}
}

func TestFrameInterval(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.FrameInterval(); got <= 0 {
		t.Errorf("FrameInterval() = %v, expected positive", got)
	}

	cfg.FrameRate = 0
	if got := cfg.FrameInterval(); got <= 0 {
		t.Errorf("FrameInterval() with zero rate = %v, expected fallback", got)
	}
}
