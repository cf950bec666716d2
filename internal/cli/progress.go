package cli

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// newProgress returns a progress callback rendering a bar on stderr and a
// function that completes the bar.
func newProgress(description string, quiet bool) (func(done, total int), func()) {
	if quiet {
		return nil, func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	var current int
	update := func(done, total int) {
		if total != current {
			current = total
			bar.ChangeMax(total)
		}
		_ = bar.Set(done)
	}
	return update, func() { _ = bar.Finish() }
}
