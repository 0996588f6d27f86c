package differ

import "io"

// Differ compares a page before and after injection
type Differ struct {
	processor       *DiffProcessor
	statsCalculator *DiffStatsCalculator
	formatter       *UnifiedFormatter
}

// New creates a Differ
func New(cfg DiffConfig) *Differ {
	return &Differ{
		processor:       NewDiffProcessor(cfg),
		statsCalculator: NewDiffStatsCalculator(),
		formatter:       NewUnifiedFormatter(cfg.ContextLines),
	}
}

// WriteUnified writes a unified diff of before and after to w
func (d *Differ) WriteUnified(w io.Writer, before, after, fromName, toName string) (DiffStatistics, error) {
	diffs := d.processor.ProcessDiff(before, after)
	if err := d.formatter.Format(w, diffs, fromName, toName); err != nil {
		return DiffStatistics{}, err
	}
	return d.statsCalculator.CalculateStats(diffs), nil
}
