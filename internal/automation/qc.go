package automation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/casim/internal/metrics"
)

// QCReport is the post-sweep quality check.
type QCReport struct {
	Rows     int
	Groups   int
	MinSeeds int
	Short    map[string]int
	Missing  []string
}

func (r QCReport) OK() bool { return len(r.Short) == 0 && len(r.Missing) == 0 }

func (r QCReport) Err() error {
	if r.OK() {
		return nil
	}
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing cells: "+strings.Join(r.Missing, ", "))
	}
	if len(r.Short) > 0 {
		keys := make([]string, 0, len(r.Short))
		for k := range r.Short {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		short := make([]string, len(keys))
		for i, k := range keys {
			short[i] = fmt.Sprintf("%s (n=%d)", k, r.Short[k])
		}
		parts = append(parts, fmt.Sprintf("groups below %d seeds: %s", r.MinSeeds, strings.Join(short, ", ")))
	}
	return fmt.Errorf("qc failed: %s", strings.Join(parts, "; "))
}

// QC checks that every group has at least minSeeds rows and, when plan is
// non-nil, that every cell of the plan is present.
func QC(rows []metrics.Row, minSeeds int, plan *Plan) QCReport {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Key()]++
	}

	rep := QCReport{
		Rows:     len(rows),
		Groups:   len(counts),
		MinSeeds: minSeeds,
		Short:    make(map[string]int),
	}
	for k, n := range counts {
		if n < minSeeds {
			rep.Short[k] = n
		}
	}
	if plan != nil {
		for _, cell := range plan.Cells() {
			if _, ok := counts[cell.String()]; !ok {
				rep.Missing = append(rep.Missing, cell.String())
			}
		}
	}
	return rep
}
