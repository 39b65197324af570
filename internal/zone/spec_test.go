package zone

import (
	"strings"
	"testing"
)

func TestFilterSpec_Range(t *testing.T) {
	spec, err := NewFilterSpec("up", 1.0, 0.2, Window{Hour: 9, Minute: 30}, Window{Hour: 16})
	if err != nil {
		t.Fatalf("NewFilterSpec failed: %v", err)
	}
	low, high := spec.Range()
	if low != 0.8 || high != 1.2 {
		t.Errorf("expected range [0.8, 1.2], got [%v, %v]", low, high)
	}

	spec2, err := NewFilterSpec("down", -0.5, 0.3, Window{Hour: 9, Minute: 30}, Window{Hour: 16})
	if err != nil {
		t.Fatalf("NewFilterSpec failed: %v", err)
	}
	low2, high2 := spec2.Range()
	if low2 != -0.8 || high2 != -0.2 {
		t.Errorf("expected range [-0.8, -0.2], got [%v, %v]", low2, high2)
	}
}

func TestNewFilterSpec_Validation(t *testing.T) {
	valid := Window{Hour: 9, Minute: 30}

	cases := []struct {
		name      string
		tolerance float64
		start     Window
		end       Window
	}{
		{"negative tolerance", -0.1, valid, valid},
		{"bad day offset", 0.2, Window{DayOffset: -2, Hour: 9}, valid},
		{"bad hour", 0.2, Window{Hour: 24}, valid},
		{"bad minute", 0.2, valid, Window{Hour: 16, Minute: 60}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFilterSpec("bad", 1.0, tc.tolerance, tc.start, tc.end); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestParseSpec_DisabledYieldsNoFilter(t *testing.T) {
	target, tolerance := 1.0, 0.2
	spec, err := ParseSpec("off", false, &target, &tolerance, nil, nil)
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}
	if spec != nil {
		t.Error("disabled spec must never materialize as a live object")
	}
}

func TestParseSpec_EnabledMissingParams(t *testing.T) {
	tolerance := 0.2
	_, err := ParseSpec("broken", true, nil, &tolerance, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("expected missing target error, got %v", err)
	}

	target := 1.0
	_, err = ParseSpec("broken", true, &target, nil, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("expected missing tolerance error, got %v", err)
	}
}

func TestParseSpec_DefaultWindow(t *testing.T) {
	target, tolerance := 1.0, 0.5
	spec, err := ParseSpec("session", true, &target, &tolerance, nil, nil)
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}

	start, end := spec.Start(), spec.End()
	if start != (Window{DayOffset: 0, Hour: 9, Minute: 30}) {
		t.Errorf("expected default start 09:30 same day, got %+v", start)
	}
	if end != (Window{DayOffset: 0, Hour: 16, Minute: 0}) {
		t.Errorf("expected default end 16:00 same day, got %+v", end)
	}
}
