package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// prompter reads answers line by line. Blank input or EOF takes the default.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) readLine(label, def string) (string, bool) {
	fmt.Fprintf(p.out, "%s (default %s): ", label, def)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

func (p *prompter) String(label, def string) string {
	raw, _ := p.readLine(label, def)
	if raw == "" {
		return def
	}
	return raw
}

// Float asks again until the answer parses as a finite number.
func (p *prompter) Float(label string, def float64) float64 {
	for {
		raw, ok := p.readLine(label, formatDefault(def))
		if raw == "" {
			return def
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
		fmt.Fprintf(p.out, "  %q is not a number\n", raw)
		if !ok {
			return def
		}
	}
}

// formatDefault prints 4 as "4.0" and 1.1 as "1.1".
func formatDefault(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
