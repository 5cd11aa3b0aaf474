package metric

import "testing"

func TestRegistry_TotalOverMetrics(t *testing.T) {
	t.Parallel()

	names := Metrics()
	if len(names) != 9 {
		t.Fatalf("metrics=%d", len(names))
	}
	for _, name := range names {
		m, err := ParseMetric(name)
		if err != nil {
			t.Fatalf("ParseMetric(%q): %v", name, err)
		}
		d, err := Lookup(m)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if d.Command != CmdSummary && d.Command != CmdStats {
			t.Fatalf("metric %q has command %q", name, d.Command)
		}
		if len(d.Keys) == 0 {
			t.Fatalf("metric %q has no keys", name)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	if _, err := Lookup(Metric("wattage")); err == nil {
		t.Fatalf("expected error for unregistered metric")
	}
}

func TestParseMetric_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := ParseMetric("hashrate"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"A3", "D3", "L3+", "S9", "T9+"} {
		if _, err := ParseType(name); err != nil {
			t.Fatalf("ParseType(%q): %v", name, err)
		}
	}
	if _, err := ParseType("S17"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
