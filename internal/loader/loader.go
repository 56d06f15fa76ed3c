// Package loader partitions raw spreadsheet rows into valid and discarded
// sets. Classification is a pure function of the rows and the configuration
// snapshot: every input row ends up in exactly one of the two outputs, and
// every discarded row carries the reason it was excluded.
package loader

import (
	"fmt"
	"strings"
	"time"

	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/model"
)

// dateLayout is the day/month/year format used by the source export.
const dateLayout = "02/01/2006"

// proposedDateCode rows are dated by the proposed date; every other code is
// dated by the completion date.
const proposedDateCode = "C06"

// Load classifies rows against the configuration snapshot.
//
// Stages run in a fixed order on the rows surviving the previous stage, so
// exclusion reasons never overlap: event exclusion first, in list order, then
// code extraction and tariff membership. Rows that pass both become valid
// rows with their type, reference date and period derived. An unparseable or
// missing reference date does not discard a row; it leaves the period
// unknown, and month-keyed aggregations skip the row.
func Load(rows []model.RawRow, cfg config.Snapshot) ([]model.ValidRow, []model.DiscardedRow) {
	valid := make([]model.ValidRow, 0, len(rows))
	discarded := make([]model.DiscardedRow, 0)

	surviving := rows
	for _, event := range dedupe(cfg.ExcludedEvents) {
		var kept []model.RawRow
		for _, row := range surviving {
			if row.Event == event {
				discarded = append(discarded, model.DiscardedRow{
					RawRow: row,
					Reason: fmt.Sprintf("Event excluded: %s", event),
				})
				continue
			}
			kept = append(kept, row)
		}
		surviving = kept
	}

	for _, row := range surviving {
		code := model.ParseCode(row.Activity)
		switch {
		case code == "":
			discarded = append(discarded, model.DiscardedRow{
				RawRow: row,
				Reason: "Code not recognized",
			})
		case !cfg.HasCode(code):
			discarded = append(discarded, model.DiscardedRow{
				RawRow: row,
				Reason: fmt.Sprintf("Code not in tariffs: %s", code),
			})
		default:
			valid = append(valid, classify(row, code))
		}
	}

	return valid, discarded
}

func classify(row model.RawRow, code string) model.ValidRow {
	v := model.ValidRow{
		RawRow: row,
		Code:   code,
		Type:   model.CodeType(code),
	}

	raw := row.CompletionDate
	if code == proposedDateCode {
		raw = row.ProposedDate
	}

	if t, err := time.Parse(dateLayout, strings.TrimSpace(raw)); err == nil {
		v.RefDate = &t
		v.Period = model.PeriodOf(t)
	}

	return v
}

// dedupe keeps the first occurrence of each event so a duplicated entry in
// the exclusion list cannot record the same row twice.
func dedupe(events []string) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
