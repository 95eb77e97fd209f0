package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/drgkaleda/go-echoping/pingdata"
	"github.com/drgkaleda/go-echoping/pinger"
)

// Adaptive colors that work on light and dark terminals.
var (
	colorPurple = lipgloss.AdaptiveColor{Light: "#7B2FBE", Dark: "#B97EFF"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#FF4672"}
	colorDimFg  = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
)

// printer writes the human readable lines of a run. Styles are bound to
// the writer, so output that is not a terminal stays plain.
type printer struct {
	w io.Writer

	title   lipgloss.Style
	ok      lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
	summary lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:       w,
		title:   r.NewStyle().Bold(true).Foreground(colorPurple),
		ok:      r.NewStyle().Foreground(colorGreen),
		fail:    r.NewStyle().Foreground(colorRed),
		dim:     r.NewStyle().Foreground(colorDimFg),
		summary: r.NewStyle().Bold(true),
	}
}

func (p *printer) PingStart(t pinger.Target, size int) {
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf("• PING %s (%s)", t.Host, t.Addr)))
	fmt.Fprintf(p.w, " → sending %d bytes of data:\n", size)
}

func (p *printer) PingProcess(t pinger.Target, size int, out pinger.Outcome) {
	if !out.Replied {
		fmt.Fprintln(p.w, p.fail.Render(fmt.Sprintf("✖ %s for seq=%d: %v", out.Reason, out.Seq, out.Err)))
		return
	}

	line := fmt.Sprintf("  ← response from %s: bytes=%d time=%s seq=%d",
		replyFrom(t, out), out.Nbytes, formatMillis(out.Millis()), out.Seq)
	if out.TTL >= 0 {
		line += fmt.Sprintf(" ttl=%d", out.TTL)
	}
	if out.Nbytes != size {
		line += p.dim.Render(fmt.Sprintf(" (sent %d)", size))
	}
	fmt.Fprintln(p.w, p.ok.Render(line))
}

func (p *printer) PingFinish(t pinger.Target, st pingdata.Statistics) {
	rule := p.dim.Render("╰" + strings.Repeat("─", 45))

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.dim.Render("╭─[ ")+p.summary.Render(t.Host+" ping statistics")+p.dim.Render(" ]"))
	fmt.Fprintf(p.w, "%s  ← %d sent, %d received, %d lost (%.1f%% loss)\n",
		p.dim.Render("│"), st.Sent, st.Received, st.Lost, st.Loss)
	if st.HasLatency {
		fmt.Fprintf(p.w, "%s  ← min=%s  |  avg=%s  |  max=%s\n",
			p.dim.Render("│"), formatMillis(st.Min), formatMillis(st.Avg), formatMillis(st.Max))
	}
	fmt.Fprintln(p.w, rule)
}

func replyFrom(t pinger.Target, out pinger.Outcome) string {
	if out.Src.IsValid() {
		return out.Src.String()
	}
	return t.Addr.String()
}
