package calcclient

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	progressBarWidth     = 32
	progressRenderPeriod = 120 * time.Millisecond
)

// progressBar рисует ASCII-индикатор выгрузки формы в терминал.
type progressBar struct {
	out           io.Writer
	prefix        string
	total         int64
	current       int64
	lastRender    time.Time
	lastLineWidth int
	finished      bool
	mu            sync.Mutex
}

func newProgressBar(out io.Writer, prefix string, total int64) *progressBar {
	return &progressBar{
		out:    out,
		prefix: prefix,
		total:  total,
	}
}

func (p *progressBar) AddBytes(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.current += n
	p.mu.Unlock()
	p.render(false, "")
}

func (p *progressBar) render(force bool, suffix string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.finished && !force {
		p.mu.Unlock()
		return
	}
	now := time.Now()
	if !force && now.Sub(p.lastRender) < progressRenderPeriod {
		p.mu.Unlock()
		return
	}

	line := p.lineLocked()
	prevWidth := p.lastLineWidth
	p.lastLineWidth = len(line) + len(suffix)
	p.lastRender = now
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\r%s%s%s", line, suffix, padding(prevWidth, len(line)+len(suffix)))
}

func (p *progressBar) lineLocked() string {
	var b strings.Builder
	b.Grow(len(p.prefix) + 64)
	b.WriteString(p.prefix)
	b.WriteByte(' ')

	if p.total <= 0 {
		b.WriteString(HumanBytes(p.current))
		b.WriteString(" sent")
		return b.String()
	}

	ratio := min(float64(p.current)/float64(p.total), 1)
	filled := min(int(ratio*progressBarWidth+0.5), progressBarWidth)
	b.WriteByte('[')
	b.WriteString(strings.Repeat("=", filled))
	b.WriteString(strings.Repeat(" ", progressBarWidth-filled))
	fmt.Fprintf(&b, "] %3d%% %s/%s", int(ratio*100+0.5), HumanBytes(p.current), HumanBytes(p.total))

	return b.String()
}

func (p *progressBar) Finish() {
	p.complete(nil)
}

func (p *progressBar) Fail(err error) {
	if err == nil {
		err = fmt.Errorf("failed")
	}
	p.complete(err)
}

func (p *progressBar) complete(err error) {
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	line := p.lineLocked()
	prevWidth := p.lastLineWidth
	p.lastLineWidth = len(line)
	p.mu.Unlock()

	suffix := " ✓"
	if err != nil {
		suffix = fmt.Sprintf(" ✗ %v", err)
	}

	fmt.Fprintf(p.out, "\r%s%s%s\n", line, suffix, padding(prevWidth, len(line)+len(suffix)))
}

// padding затирает хвост предыдущей, более длинной строки.
func padding(prev, cur int) string {
	if prev > cur {
		return strings.Repeat(" ", prev-cur)
	}
	return ""
}

type progressWriter struct {
	bar *progressBar
}

func (w progressWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.bar.AddBytes(int64(len(p)))
	}
	return len(p), nil
}

// HumanBytes форматирует размер в двоичных единицах: 512 B, 1.5 KB, 3.0 MB.
func HumanBytes(v int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(v)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", v, units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}
