package metric

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"antprobe/internal/miner"
)

const (
	// chainPlaceholder marks the per-chain suffix position in a key template.
	chainPlaceholder = "[i]"
	// maxChainIndex is the highest 1-based hashing-chain index a miner
	// reports (64 chains max).
	maxChainIndex = 63
	// sentinel marks a failed unit inside a per-chain status string.
	sentinel = "x"
)

// Aggregation failure causes. Callers map any of these to DefaultValue;
// they are distinct so tests can tell a missing key from an empty match
// set or an unexpected payload shape.
var (
	ErrMissingKey = errors.New("key not present in response")
	ErrNoValues   = errors.New("no values matched any expanded key")
	ErrBadShape   = errors.New("response shape not as expected")
)

// Aggregate reduces a decoded device response to the single printable
// value of the given descriptor.
func Aggregate(resp miner.Response, d Descriptor) (string, error) {
	switch d.Aggregation {
	case AggDirect:
		return direct(resp, d.Keys)
	case AggMax:
		return maxOf(resp, d.Keys)
	case AggCountSentinel:
		return countSentinel(resp, d.Keys)
	default:
		return "", fmt.Errorf("%w: unknown aggregation %d", ErrBadShape, d.Aggregation)
	}
}

// direct reads SUMMARY[0][key] for the descriptor's single key template.
func direct(resp miner.Response, keys []string) (string, error) {
	summary, err := summarySection(resp)
	if err != nil {
		return "", err
	}
	if len(keys) != 1 {
		return "", fmt.Errorf("%w: direct lookup wants exactly one key, got %d", ErrBadShape, len(keys))
	}
	v, ok := summary[keys[0]]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingKey, keys[0])
	}
	return formatValue(v), nil
}

// maxOf expands the key templates over STATS[1] and returns the largest
// present value. Values are compared numerically; if nothing parses as a
// number the lexically largest string wins.
func maxOf(resp miner.Response, keys []string) (string, error) {
	values, err := matchChainKeys(resp, keys)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", ErrNoValues
	}

	best := ""
	bestNum := 0.0
	haveNum := false
	for _, v := range values {
		s := formatValue(v)
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			if !haveNum || n > bestNum {
				bestNum = n
				best = s
				haveNum = true
			}
			continue
		}
		if !haveNum && (best == "" || s > best) {
			best = s
		}
	}
	return best, nil
}

// countSentinel expands the key templates over STATS[1] and sums the
// sentinel occurrences across every present value. An empty match set is
// a legitimate zero, not a failure.
func countSentinel(resp miner.Response, keys []string) (string, error) {
	values, err := matchChainKeys(resp, keys)
	if err != nil {
		return "", err
	}
	failures := 0
	for _, v := range values {
		failures += strings.Count(formatValue(v), sentinel)
	}
	return strconv.Itoa(failures), nil
}

// matchChainKeys expands each key template over chain indices 1..63 (a
// template without the placeholder is looked up as-is) and collects the
// values present in STATS[1], in expansion order.
func matchChainKeys(resp miner.Response, keys []string) ([]any, error) {
	stats, err := statsSection(resp)
	if err != nil {
		return nil, err
	}
	var values []any
	for _, tmpl := range keys {
		if !strings.Contains(tmpl, chainPlaceholder) {
			if v, ok := stats[tmpl]; ok {
				values = append(values, v)
			}
			continue
		}
		for i := 1; i <= maxChainIndex; i++ {
			key := strings.ReplaceAll(tmpl, chainPlaceholder, strconv.Itoa(i))
			if v, ok := stats[key]; ok {
				values = append(values, v)
			}
		}
	}
	return values, nil
}

func summarySection(resp miner.Response) (map[string]any, error) {
	return section(resp, "SUMMARY", 0)
}

func statsSection(resp miner.Response) (map[string]any, error) {
	return section(resp, "STATS", 1)
}

func section(resp miner.Response, name string, index int) (map[string]any, error) {
	raw, ok := resp[name]
	if !ok {
		return nil, fmt.Errorf("%w: no %s member", ErrBadShape, name)
	}
	list, ok := raw.([]any)
	if !ok || len(list) <= index {
		return nil, fmt.Errorf("%w: %s is not a list with at least %d elements", ErrBadShape, name, index+1)
	}
	m, ok := list[index].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrBadShape, name, index)
	}
	return m, nil
}

// formatValue renders a decoded JSON value the way the device emitted it:
// strings verbatim, numbers without a synthetic exponent or trailing zeros.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
