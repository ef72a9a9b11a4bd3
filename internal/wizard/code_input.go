package wizard

import "strings"

// CodeLength is the number of digit cells.
const CodeLength = 6

// CodeInput models six single-digit cells with a focus cursor.
type CodeInput struct {
	cells [CodeLength]byte
	focus int
}

// Type writes d into the focused cell and advances focus. Non-digits are
// ignored.
func (c *CodeInput) Type(d rune) {
	if d < '0' || d > '9' {
		return
	}

	c.cells[c.focus] = byte(d)
	if c.focus < CodeLength-1 {
		c.focus++
	}
}

// Backspace clears the focused cell, or moves to the previous cell and
// clears it when the focused one is already empty.
func (c *CodeInput) Backspace() {
	if c.cells[c.focus] == 0 && c.focus > 0 {
		c.focus--
	}
	c.cells[c.focus] = 0
}

// Paste spreads the digits of text over the cells starting at the first
// one. Other characters are dropped.
func (c *CodeInput) Paste(text string) {
	c.Clear()
	for _, r := range text {
		if r < '0' || r > '9' {
			continue
		}
		c.cells[c.focus] = byte(r)
		if c.focus == CodeLength-1 {
			return
		}
		c.focus++
	}
}

// Focus moves the cursor to cell i.
func (c *CodeInput) Focus(i int) {
	if i >= 0 && i < CodeLength {
		c.focus = i
	}
}

// Focused returns the index of the focused cell.
func (c *CodeInput) Focused() int {
	return c.focus
}

// Cells returns the cell contents, "" for empty cells.
func (c *CodeInput) Cells() []string {
	out := make([]string, CodeLength)
	for i, b := range c.cells {
		if b != 0 {
			out[i] = string(b)
		}
	}
	return out
}

// Code joins the filled cells.
func (c *CodeInput) Code() string {
	var sb strings.Builder
	for _, b := range c.cells {
		if b != 0 {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// Complete reports whether every cell holds a digit.
func (c *CodeInput) Complete() bool {
	return len(c.Code()) == CodeLength
}

// Clear empties every cell and focuses the first.
func (c *CodeInput) Clear() {
	c.cells = [CodeLength]byte{}
	c.focus = 0
}
