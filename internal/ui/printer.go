package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/bobil/internal/heater"
)

// Printer writes UI components to a writer. Commands use it instead of
// printing to stdout directly so output can be captured in tests.
//
// Styling follows the writer: boxes are drawn only when it is a terminal,
// otherwise components are printed as plain lines.
type Printer struct {
	out    io.Writer
	width  int
	styled bool
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	width, styled := WriterWidth(w)
	return &Printer{
		out:    w,
		width:  width,
		styled: styled,
	}
}

// Styled reports whether the printer draws styled boxes
func (p *Printer) Styled() bool {
	return p.styled
}

// SetStyled overrides the styling detected from the writer
func (p *Printer) SetStyled(styled bool) *Printer {
	p.styled = styled
	return p
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(h *Header) {
	if !p.styled {
		p.Println(h.RenderPlain())
		return
	}
	p.Println(h.SetWidth(p.width).Render())
}

// PrintResult prints a result box
func (p *Printer) PrintResult(r *Result) {
	if !p.styled {
		p.Println(r.RenderPlain())
		return
	}
	p.Println(r.SetWidth(p.width).Render())
}

// PrintDeviceError prints a failure box for a heater error
func (p *Printer) PrintDeviceError(err error) {
	p.PrintResult(NewDeviceErrorResult(err))
}

// PrintStatus prints a snapshot box
func (p *Printer) PrintStatus(s *heater.Snapshot, stale bool) {
	if !p.styled {
		if stale {
			p.Println(WarningMarker + " Heater unreachable, showing cached data")
		}
		p.Print(RenderStatusPlain(s))
		return
	}
	p.Println(RenderStatus(s, stale, p.width))
}
