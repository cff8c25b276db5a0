package main

import "unicode/utf8"

// minRevealStep is the fewest bytes revealed per tick; larger backlogs reveal
// faster so the display never lags far behind the stream.
const minRevealStep = 12

// typewriter gradually reveals a target text that only ever grows.
type typewriter struct {
	target string
	shown  int
}

// SetTarget replaces the text being revealed. Text already shown stays shown
// as long as it is still a prefix of the new target.
func (t *typewriter) SetTarget(s string) {
	if t.shown > len(s) || s[:t.shown] != t.target[:t.shown] {
		t.shown = 0
	}
	t.target = s
}

// Advance reveals the next slice and reports whether anything changed.
func (t *typewriter) Advance() bool {
	if t.shown >= len(t.target) {
		return false
	}
	step := max(minRevealStep, (len(t.target)-t.shown)/8)
	next := min(len(t.target), t.shown+step)
	for next < len(t.target) && !utf8.RuneStart(t.target[next]) {
		next++
	}
	t.shown = next
	return true
}

func (t *typewriter) Finish() {
	t.shown = len(t.target)
}

func (t *typewriter) Done() bool {
	return t.shown >= len(t.target)
}

func (t *typewriter) Text() string {
	return t.target[:t.shown]
}

func (t *typewriter) Reset() {
	t.target, t.shown = "", 0
}
