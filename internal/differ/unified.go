package differ

import (
	"fmt"
	"io"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type lineOp struct {
	op   diffmatchpatch.Operation
	text string
}

func flatten(diffs []diffmatchpatch.Diff) []lineOp {
	var ops []lineOp
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			ops = append(ops, lineOp{op: d.Type, text: line})
		}
	}
	return ops
}

// UnifiedFormatter renders line diffs in unified format
type UnifiedFormatter struct {
	contextLines int
}

// NewUnifiedFormatter creates a formatter showing contextLines around each change
func NewUnifiedFormatter(contextLines int) *UnifiedFormatter {
	if contextLines < 0 {
		contextLines = 0
	}
	return &UnifiedFormatter{contextLines: contextLines}
}

// Format writes diffs to w. Nothing is written for identical inputs.
func (uf *UnifiedFormatter) Format(w io.Writer, diffs []diffmatchpatch.Diff, fromName, toName string) error {
	ops := flatten(diffs)
	n := len(ops)

	oldNo := make([]int, n)
	newNo := make([]int, n)
	changed := false
	o, nn := 1, 1
	for i, op := range ops {
		oldNo[i], newNo[i] = o, nn
		switch op.op {
		case diffmatchpatch.DiffEqual:
			o++
			nn++
		case diffmatchpatch.DiffDelete:
			o++
			changed = true
		case diffmatchpatch.DiffInsert:
			nn++
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if _, err := fmt.Fprintf(w, "--- %s\n+++ %s\n", fromName, toName); err != nil {
		return err
	}

	ctx := uf.contextLines
	for i := 0; i < n; {
		if ops[i].op == diffmatchpatch.DiffEqual {
			i++
			continue
		}

		start := max(0, i-ctx)
		end := i
		for j := i; j < n; {
			if ops[j].op != diffmatchpatch.DiffEqual {
				end = j
				j++
				continue
			}
			k := j
			for k < n && ops[k].op == diffmatchpatch.DiffEqual {
				k++
			}
			if k < n && k-j <= 2*ctx {
				j = k
				continue
			}
			break
		}
		stop := min(n, end+ctx+1)

		if err := uf.writeHunk(w, ops[start:stop], oldNo[start], newNo[start]); err != nil {
			return err
		}
		i = stop
	}
	return nil
}

func (uf *UnifiedFormatter) writeHunk(w io.Writer, ops []lineOp, oldStart, newStart int) error {
	oldCount, newCount := 0, 0
	for _, op := range ops {
		switch op.op {
		case diffmatchpatch.DiffEqual:
			oldCount++
			newCount++
		case diffmatchpatch.DiffDelete:
			oldCount++
		case diffmatchpatch.DiffInsert:
			newCount++
		}
	}
	if oldCount == 0 {
		oldStart--
	}
	if newCount == 0 {
		newStart--
	}

	if _, err := fmt.Fprintf(w, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount); err != nil {
		return err
	}
	for _, op := range ops {
		prefix := " "
		switch op.op {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, op.text); err != nil {
			return err
		}
	}
	return nil
}
