package metric

import "fmt"

// Aggregation selects how matched response values are reduced to one
// printable result.
type Aggregation int

const (
	// AggDirect reads a single key from SUMMARY[0].
	AggDirect Aggregation = iota
	// AggMax expands chain-indexed keys over STATS[1] and keeps the maximum.
	AggMax
	// AggCountSentinel expands chain-indexed keys over STATS[1] and counts
	// failed-unit sentinels across the matched values.
	AggCountSentinel
)

// Descriptor defines how one metric is fetched and aggregated.
type Descriptor struct {
	Command     Command
	Keys        []string
	Aggregation Aggregation
}

// descriptors is the closed registry: exactly one descriptor per metric.
// Key templates containing chainPlaceholder are expanded over chain
// indices 1..maxChainIndex at aggregation time.
var descriptors = map[Metric]Descriptor{
	AverageSpeed:   {Command: CmdSummary, Keys: []string{"GHS av"}, Aggregation: AggDirect},
	AverageSpeed5s: {Command: CmdSummary, Keys: []string{"GHS 5s"}, Aggregation: AggDirect},
	ChainFailures:  {Command: CmdStats, Keys: []string{"chain_acs_[i]"}, Aggregation: AggCountSentinel},
	ChipTemp:       {Command: CmdStats, Keys: []string{"temp2_[i]"}, Aggregation: AggMax},
	ErrorRate:      {Command: CmdSummary, Keys: []string{"Device Hardware%"}, Aggregation: AggDirect},
	FanFront:       {Command: CmdStats, Keys: []string{"fan1", "fan3"}, Aggregation: AggMax},
	FanRear:        {Command: CmdStats, Keys: []string{"fan2", "fan6"}, Aggregation: AggMax},
	PcbTemp:        {Command: CmdStats, Keys: []string{"temp3_[i]", "temp[i]"}, Aggregation: AggMax},
	Speed:          {Command: CmdSummary, Keys: []string{"GHS 5s"}, Aggregation: AggDirect},
}

// Lookup returns the descriptor for a metric. The CLI rejects unknown
// metrics before any network activity, so a miss here means the registry
// itself is inconsistent.
func Lookup(m Metric) (Descriptor, error) {
	d, ok := descriptors[m]
	if !ok {
		return Descriptor{}, fmt.Errorf("no descriptor registered for metric %q", m)
	}
	return d, nil
}
