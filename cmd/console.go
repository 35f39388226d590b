package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// console serializes terminal output between the progress event printer and
// the live encoder status line.
type console struct {
	mu        sync.Mutex
	out       io.Writer
	live      bool
	statusLen int
}

func newConsole(out io.Writer) *console {
	c := &console{out: out}
	if f, ok := out.(*os.File); ok {
		c.live = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return c
}

// Println prints a full line, clearing any status line first.
func (c *console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearStatus()
	fmt.Fprintln(c.out, a...)
}

// Printf prints formatted text, clearing any status line first.
func (c *console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearStatus()
	fmt.Fprintf(c.out, format, a...)
}

// Status overwrites the current status line. It is a no-op when output is
// not a terminal.
func (c *console) Status(line string) {
	if !c.live {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pad := ""
	if n := c.statusLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(c.out, "\r%s%s", line, pad)
	c.statusLen = len(line) + len(pad)
}

func (c *console) clearStatus() {
	if c.statusLen == 0 {
		return
	}
	fmt.Fprintf(c.out, "\r%s\r", strings.Repeat(" ", c.statusLen))
	c.statusLen = 0
}

// prompter asks yes/no questions on the command's input stream.
type prompter struct {
	in  *bufio.Reader
	out *console
}

func newPrompter(in io.Reader, out *console) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// Confirm prints question and reports whether the answer was yes. End of
// input counts as no.
func (p *prompter) Confirm(question string) bool {
	p.out.Printf("%s ", question)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		p.out.Println()
		return false
	}
	return isYes(answer)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
