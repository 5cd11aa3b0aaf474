// Package ping runs the pre-query reachability check against a miner.
package ping

import (
	"io"
	"os/exec"
)

// Runner abstracts command execution so the check can be unit-tested
// without touching real ICMP.
type Runner interface {
	Run(name string, args ...string) error
}

// OSRunner executes commands on the host and discards their output; only
// the exit status matters for reachability.
type OSRunner struct{}

func (OSRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run()
}

// Pinger answers whether a host responds to a single ICMP echo.
type Pinger struct {
	runner Runner
}

// New returns a Pinger. A nil runner means real ICMP via /bin/ping.
func New(runner Runner) *Pinger {
	if runner == nil {
		runner = OSRunner{}
	}
	return &Pinger{runner: runner}
}

// Ping sends one echo request with a one-second deadline and maps the
// ping utility's exit status to reachability.
func (p *Pinger) Ping(host string) bool {
	return p.runner.Run("/bin/ping", "-c", "1", "-W", "1", host) == nil
}
