package git

import (
	"bytes"
	"io"
	"regexp"
	"strconv"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// sidebandRe matches the remote's human-readable progress lines, e.g.
// "Counting objects:  42% (12/28)".
var sidebandRe = regexp.MustCompile(`(Counting|Compressing|Resolving) [A-Za-z]+:[ ]+[0-9]+% \(([0-9]+)/([0-9]+)\)`)

type progressUpdate struct {
	kind    string
	current int64
	total   int64
}

// ProgressMonitor bridges the transport's sideband stream to a progress
// bar on a separate presentation goroutine. The transport writes raw
// bytes; progress lines travel over a one-way channel to the consumer,
// everything else accumulates as the remote's reply. Writers never block
// on the channel: when the consumer lags, updates are dropped.
type ProgressMonitor struct {
	updates chan progressUpdate
	done    chan struct{}

	mu      sync.Mutex
	reply   bytes.Buffer
	partial []byte
}

// NewProgressMonitor starts the consumer goroutine rendering to out.
// Callers must Close the monitor once the transport operation returns.
func NewProgressMonitor(out io.Writer) *ProgressMonitor {
	m := &ProgressMonitor{
		updates: make(chan progressUpdate, 64),
		done:    make(chan struct{}),
	}
	go m.consume(out)
	return m
}

func (m *ProgressMonitor) consume(out io.Writer) {
	defer close(m.done)
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription("  Negotiating"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(out),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()
	totals := map[string]progressUpdate{}
	for u := range m.updates {
		totals[u.kind] = u
		var current, total int64
		for _, t := range totals {
			current += t.current
			total += t.total
		}
		bar.Describe("  " + u.kind)
		bar.ChangeMax64(total)
		_ = bar.Set64(current)
	}
}

// Write is the producer side, called by the transport with sideband bytes.
func (m *ProgressMonitor) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partial = append(m.partial, p...)
	for {
		i := bytes.IndexAny(m.partial, "\r\n")
		if i < 0 {
			break
		}
		line := m.partial[:i]
		m.partial = m.partial[i+1:]
		m.handleLine(line)
	}
	return len(p), nil
}

func (m *ProgressMonitor) handleLine(line []byte) {
	match := sidebandRe.FindSubmatch(line)
	if match == nil {
		if len(bytes.TrimSpace(line)) > 0 {
			m.reply.Write(line)
			m.reply.WriteByte('\n')
		}
		return
	}
	current, _ := strconv.ParseInt(string(match[2]), 10, 64)
	total, _ := strconv.ParseInt(string(match[3]), 10, 64)
	select {
	case m.updates <- progressUpdate{kind: string(match[1]), current: current, total: total}:
	default:
	}
}

// Close flushes any trailing partial line, stops the consumer and waits
// for the bar to clear.
func (m *ProgressMonitor) Close() {
	m.mu.Lock()
	if len(m.partial) > 0 {
		m.handleLine(m.partial)
		m.partial = nil
	}
	m.mu.Unlock()
	close(m.updates)
	<-m.done
}

// Reply returns the non-progress sideband output the remote sent, e.g.
// hook messages or pull-request hints.
func (m *ProgressMonitor) Reply() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reply.String()
}
