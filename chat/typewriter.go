package chat

import "iter"

// Typewriter reveals a reply one rune at a time. It is single use: once Done
// it stays done.
type Typewriter struct {
	runes []rune
	shown int
}

func NewTypewriter(text string) *Typewriter {
	return &Typewriter{runes: []rune(text)}
}

// Next reveals one more rune and returns the visible prefix. ok is false when
// everything was already shown.
func (t *Typewriter) Next() (prefix string, ok bool) {
	if t.Done() {
		return string(t.runes), false
	}
	t.shown++
	return string(t.runes[:t.shown]), true
}

func (t *Typewriter) Done() bool {
	return t.shown >= len(t.runes)
}

func (t *Typewriter) Text() string {
	return string(t.runes)
}

// Prefixes drains the typewriter as a sequence.
func (t *Typewriter) Prefixes() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			prefix, ok := t.Next()
			if !ok || !yield(prefix) {
				return
			}
		}
	}
}
