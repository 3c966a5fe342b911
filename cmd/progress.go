package cmd

import (
	"fmt"
	"io"
)

// cliProgress prints phase progress roughly every 5% of the phase.
type cliProgress struct {
	out         io.Writer
	verb        string
	totals      map[string]int
	counts      map[string]int
	lastPrinted map[string]int
	steps       map[string]int
}

func newCLIProgress(out io.Writer, verb string) *cliProgress {
	return &cliProgress{
		out:         out,
		verb:        verb,
		totals:      make(map[string]int),
		counts:      make(map[string]int),
		lastPrinted: make(map[string]int),
		steps:       make(map[string]int),
	}
}

func (p *cliProgress) StartPhase(phase string, total int) {
	if total < 0 {
		total = 0
	}
	p.totals[phase] = total
	p.counts[phase] = 0
	p.lastPrinted[phase] = 0
	p.steps[phase] = progressStep(total)
	fmt.Fprintf(p.out, "%s %s (%d items)\n", p.verb, phase, total)
}

func (p *cliProgress) Increment(phase string, delta int) {
	if delta <= 0 {
		return
	}
	current := p.counts[phase] + delta
	p.counts[phase] = current
	total := p.totals[phase]
	step := p.steps[phase]
	if step <= 0 {
		step = 1
	}
	last := p.lastPrinted[phase]
	if current == total || last == 0 || current-last >= step {
		fmt.Fprintf(p.out, "  %s: %d/%d\n", phase, current, total)
		p.lastPrinted[phase] = current
	}
}

func (p *cliProgress) FinishPhase(phase string) {
	fmt.Fprintf(p.out, "finished %s: %d/%d\n", phase, p.counts[phase], p.totals[phase])
	delete(p.counts, phase)
	delete(p.totals, phase)
	delete(p.lastPrinted, phase)
	delete(p.steps, phase)
}

func progressStep(total int) int {
	if total <= 0 {
		return 1000
	}
	step := total / 20
	if step < 1 {
		step = 1
	}
	if step > 1000 {
		step = 1000
	}
	return step
}
