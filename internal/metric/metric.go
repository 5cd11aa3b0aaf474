package metric

import (
	"fmt"
	"sort"
)

// Metric is a symbolic name for one telemetry value the probe can report.
type Metric string

const (
	AverageSpeed   Metric = "averageSpeed"
	AverageSpeed5s Metric = "averageSpeed5s"
	ChainFailures  Metric = "chainFailures"
	ChipTemp       Metric = "chipTemp"
	ErrorRate      Metric = "errorRate"
	FanFront       Metric = "fanFront"
	FanRear        Metric = "fanRear"
	PcbTemp        Metric = "pcbTemp"
	Speed          Metric = "speed"
)

// MinerType identifies the Antminer model. All supported models share the
// same summary/stats key layout, so the type is validated but does not
// change how a metric is resolved.
type MinerType string

const (
	TypeA3  MinerType = "A3"
	TypeD3  MinerType = "D3"
	TypeL3P MinerType = "L3+"
	TypeS9  MinerType = "S9"
	TypeT9P MinerType = "T9+"
)

// Command is an API command understood by the miner's status port.
type Command string

const (
	CmdSummary Command = "summary"
	CmdStats   Command = "stats"
)

// DefaultValue is printed in place of a metric when the query or the
// aggregation fails, so the monitoring consumer always receives a
// numeric-looking value.
const DefaultValue = "0"

var validTypes = map[MinerType]bool{
	TypeA3:  true,
	TypeD3:  true,
	TypeL3P: true,
	TypeS9:  true,
	TypeT9P: true,
}

// ParseMetric validates a raw CLI string as a known metric.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := descriptors[m]; !ok {
		return "", fmt.Errorf("%q is not a valid metric (valid: %v)", s, Metrics())
	}
	return m, nil
}

// ParseType validates a raw CLI string as a known Antminer type.
func ParseType(s string) (MinerType, error) {
	t := MinerType(s)
	if !validTypes[t] {
		return "", fmt.Errorf("%q is not a valid Antminer type (valid: %v)", s, Types())
	}
	return t, nil
}

// Metrics returns the valid metric names, sorted, for usage text.
func Metrics() []string {
	out := make([]string, 0, len(descriptors))
	for m := range descriptors {
		out = append(out, string(m))
	}
	sort.Strings(out)
	return out
}

// Types returns the valid Antminer type names, sorted, for usage text.
func Types() []string {
	out := make([]string, 0, len(validTypes))
	for t := range validTypes {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}
