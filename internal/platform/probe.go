package platform

import (
	"os/exec"
	"sync"

	"github.com/mkendall/drover/internal/errors"
)

// prober resolves a capability to the first installed candidate tool.
// Probing is lazy and the first hit is cached; a negative result is also
// cached, since tools do not appear mid-run.
type prober struct {
	// lookPath is exec.LookPath unless a test swaps it.
	lookPath func(string) (string, error)

	mu    sync.Mutex
	cache map[string]probeResult
}

type probeResult struct {
	tool string
	err  error
}

func newProber() *prober {
	return &prober{
		lookPath: exec.LookPath,
		cache:    make(map[string]probeResult),
	}
}

// resolve returns the first installed tool from candidates, keyed by
// capability. Delayed-command construction calls this too, so resolution
// must stay synchronous.
func (p *prober) resolve(capability string, candidates []string, installVia string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.cache[capability]; ok {
		return cached.tool, cached.err
	}

	for _, tool := range candidates {
		if _, err := p.lookPath(tool); err == nil {
			p.cache[capability] = probeResult{tool: tool}
			return tool, nil
		}
	}

	err := errors.NewToolUnavailableError(capability, candidates, installVia)
	p.cache[capability] = probeResult{err: err}
	return "", err
}

// available reports whether any candidate satisfies the capability,
// without caching a negative result under the capability's real key. Used
// by diagnostics so a later install is still picked up.
func (p *prober) available(candidates []string) (string, bool) {
	for _, tool := range candidates {
		if _, err := p.lookPath(tool); err == nil {
			return tool, true
		}
	}
	return "", false
}
