package chatcmder

import (
	"fmt"
	"io"
	"sync"

	"github.com/costwise/costwise/pkg/cliui"
	"github.com/costwise/costwise/pkg/transcript"
)

// printer writes transcript messages as they appear. Live user messages
// are skipped because the prompt already echoed them; a replay after Reset
// prints them too.
type printer struct {
	out      io.Writer
	renderer cliui.Renderer

	mu     sync.Mutex
	seen   map[string]bool
	replay bool
}

func newPrinter(out io.Writer, r cliui.Renderer) *printer {
	return &printer{out: out, renderer: r, seen: map[string]bool{}, replay: true}
}

// Update prints every message of snapshot not printed before.
func (p *printer) Update(snapshot []transcript.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	replay := p.replay
	if len(snapshot) > 0 {
		p.replay = false
	}

	for _, m := range snapshot {
		if p.seen[m.ID] {
			continue
		}
		p.seen[m.ID] = true

		if m.Role == transcript.RoleUser && !replay {
			continue
		}
		if s := p.renderer.Render(m); s != "" {
			fmt.Fprint(p.out, s)
		}
	}
}

// Reset forgets what was printed so the next snapshot is printed in full.
func (p *printer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = map[string]bool{}
	p.replay = true
}
