package avio

import (
	"fmt"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
)

// BatchProgressBar renders the scheduler's aggregate progress as a single
// colored terminal bar across the whole batch run.
type BatchProgressBar struct {
	bar *pb.ProgressBar
}

// NewBatchProgressBar builds a 0–1000 permille bar labeled with the job
// count.
func NewBatchProgressBar(jobCount int) *BatchProgressBar {
	tmpl := fmt.Sprintf(`{{ "%s" }} {{bar . }} {{percent . }} {{etime . }}`,
		color.CyanString(fmt.Sprintf("Deinterlacing %d movies", jobCount)))
	bar := pb.ProgressBarTemplate(tmpl).Start(1000)
	return &BatchProgressBar{bar: bar}
}

// Update reports aggregate progress in [0,1].
func (b *BatchProgressBar) Update(aggregate float64) {
	if aggregate < 0 {
		aggregate = 0
	}
	if aggregate > 1 {
		aggregate = 1
	}
	b.bar.SetCurrent(int64(aggregate * 1000))
}

// Finish closes the bar and prints a completion banner.
func (b *BatchProgressBar) Finish(outputRoot string) {
	b.bar.Finish()
	fmt.Printf("%s %s\n", color.GreenString("Batch complete. Output written to:"), color.MagentaString(outputRoot))
}
