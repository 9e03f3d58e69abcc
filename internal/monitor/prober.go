package monitor

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ProbeResult is the verdict of a reachability probe.
type ProbeResult struct {
	Reachable bool
	AvgRTT    time.Duration
	Detail    string
}

// Prober checks whether a host answers at all, independently of its web
// server. The loop uses it to tell "host down" from "management UI down".
type Prober interface {
	Probe(ctx context.Context, host string) ProbeResult
}

// ICMPProber pings hosts via pro-bing.
type ICMPProber struct {
	timeout time.Duration
	count   int
}

// NewICMPProber creates a prober sending count pings within timeout.
func NewICMPProber(timeout time.Duration, count int) *ICMPProber {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if count <= 0 {
		count = 3
	}
	return &ICMPProber{timeout: timeout, count: count}
}

// Probe pings the host (any port suffix is stripped) and classifies the
// outcome.
func (p *ICMPProber) Probe(ctx context.Context, host string) ProbeResult {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	pinger, err := probing.NewPinger(host)
	if err != nil {
		return ProbeResult{Detail: fmt.Sprintf("probe setup failed: %v", err)}
	}
	pinger.Count = p.count
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(runtime.GOOS == "windows")

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case runErr := <-done:
		if runErr != nil {
			return ProbeResult{Detail: fmt.Sprintf("probe failed: %v", runErr)}
		}
		stats := pinger.Statistics()
		if stats.PacketsRecv == 0 {
			return ProbeResult{Detail: "host unreachable (icmp: all packets lost)"}
		}
		return ProbeResult{
			Reachable: true,
			AvgRTT:    stats.AvgRtt,
			Detail:    fmt.Sprintf("host up, management ui down (icmp avg %s)", stats.AvgRtt.Round(time.Millisecond)),
		}
	case <-ctx.Done():
		pinger.Stop()
		return ProbeResult{Detail: "probe cancelled"}
	}
}
