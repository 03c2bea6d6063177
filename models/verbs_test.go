package models

import "testing"

func TestClampTimeoutMs(t *testing.T) {
	cases := []struct {
		name string
		in   int
		def  int
		want int
	}{
		{"zero uses default", 0, 8000, 8000},
		{"below floor clamps up", 100, 8000, 500},
		{"above ceiling clamps down", 120000, 8000, 60000},
		{"within range passes through", 5000, 8000, 5000},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := clampTimeoutMs(c.in, c.def); got != c.want {
				t.Errorf("clampTimeoutMs(%d, %d) = %d, want %d", c.in, c.def, got, c.want)
			}
		})
	}
}

func TestClickRequest_Defaults(t *testing.T) {
	r := &ClickRequest{}
	r.Defaults()
	if r.Button != "left" {
		t.Errorf("expected default button 'left', got %q", r.Button)
	}
	if r.TimeoutMs != 8000 {
		t.Errorf("expected default timeout 8000, got %d", r.TimeoutMs)
	}
}

func TestNavigateRequest_Defaults(t *testing.T) {
	r := &NavigateRequest{}
	r.Defaults()
	if r.WaitUntil != "load" {
		t.Errorf("expected default waitUntil 'load', got %q", r.WaitUntil)
	}
}

func TestScrollRequest_Defaults_OnlyAppliesWithoutRef(t *testing.T) {
	r := &ScrollRequest{}
	r.Defaults()
	if r.Direction != "down" || r.Amount != 500 {
		t.Errorf("expected default direction/amount, got %q/%d", r.Direction, r.Amount)
	}

	r2 := &ScrollRequest{Ref: "e3"}
	r2.Defaults()
	if r2.Direction != "" || r2.Amount != 0 {
		t.Errorf("expected no defaults when ref is set, got %q/%d", r2.Direction, r2.Amount)
	}
}

func TestResizeRequest_Defaults_FloorsDimensions(t *testing.T) {
	r := &ResizeRequest{Width: 100, Height: 50}
	r.Defaults()
	if r.Width != 320 || r.Height != 240 {
		t.Errorf("expected floor (320,240), got (%d,%d)", r.Width, r.Height)
	}

	r2 := &ResizeRequest{Width: 1920, Height: 1080}
	r2.Defaults()
	if r2.Width != 1920 || r2.Height != 1080 {
		t.Errorf("expected dimensions preserved above floor, got (%d,%d)", r2.Width, r2.Height)
	}
}

func TestWaitRequest_Defaults(t *testing.T) {
	r := &WaitRequest{}
	r.Defaults()
	if r.TimeoutMs != 20000 {
		t.Errorf("expected default timeout 20000, got %d", r.TimeoutMs)
	}
}
