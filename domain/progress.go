package domain

import (
	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

// Progress reports incremental completion of a blocking loader step. The
// loaders accept one per call so a caller embedding this as a library can
// redirect or silence it; NewCliProgress matches the teacher's bar theme.
type Progress interface {
	Add(n int)
	Finish()
}

// noopProgress discards every update. The zero value of Progress callers
// should default to when none is supplied.
type noopProgress struct{}

func (noopProgress) Add(int)  {}
func (noopProgress) Finish() {}

// NoopProgress is a Progress that reports nothing.
var NoopProgress Progress = noopProgress{}

// cliProgress adapts schollz/progressbar/v3 to Progress, matching the
// teacher's bar theme from pkg/osmparser/map.go and pkg/kv.
type cliProgress struct {
	bar *progressbar.ProgressBar
}

// NewCliProgress builds a terminal progress bar with the given total and
// description, in the teacher's theme.
func NewCliProgress(total int, description string) Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &cliProgress{bar: bar}
}

func (p *cliProgress) Add(n int) {
	p.bar.Add(n)
}

func (p *cliProgress) Finish() {
	p.bar.Finish()
}
