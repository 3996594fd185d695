/**
 * Copyright 2026 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */
package main

import (
	"fmt"
	"io"
	"text/template"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"bytes": humanBytes,
}).Parse(`# Run report: {{.Run.Op}} {{.Run.Filename}}

**Run:** {{.Run.ID}}
**Date:** {{.Run.CreatedAt.Format "2006-01-02 15:04:05"}}

## Algorithm

Huffman coding assigns shorter bit strings to more frequent bytes. The
tree is built by repeatedly merging the two lightest nodes taken from a
min-heap; the artifact stores the byte histogram so the decoder can
rebuild the same tree.

- Frequency table: O(N) over the input
- Heap and tree: O(C log C), C <= 256 distinct bytes
- Encoding: O(N)
- Extra memory: O(C) for the table and the tree

## Results

| | |
|---|---|
| Original size | {{.Run.Metrics.OriginalSize}} bytes ({{bytes .Run.Metrics.OriginalSize}}) |
| Compressed size | {{.Run.Metrics.CompressedSize}} bytes ({{bytes .Run.Metrics.CompressedSize}}) |
| Distinct bytes | {{.Run.Metrics.Symbols}} |
| Payload bits | {{.Run.Metrics.PayloadBits}} |
| Password protected | {{if .Run.Metrics.Encrypted}}yes{{else}}no{{end}} |
| Reduction | {{printf "%.2f" .Run.Metrics.Ratio}}% |
| Time taken | {{printf "%.4f" .Seconds}} seconds |
{{if lt .Run.Metrics.Ratio 0.0}}
Negative savings happen when the input is already compressed or too
small to pay for the header.
{{end}}`))

// WriteReport renders the markdown report of one run.
func WriteReport(w io.Writer, run *Run) error {
	return reportTemplate.Execute(w, struct {
		Run     *Run
		Seconds float64
	}{
		Run:     run,
		Seconds: run.Metrics.Elapsed.Seconds(),
	})
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
