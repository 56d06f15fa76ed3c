// Package analysis implements the aggregation engine over classified rows.
//
// Every operation is a pure function of the valid rows and the tariff
// snapshot, recomputed on each call. Outputs are deterministic: groupings are
// collected in a first pass, sorted explicitly, and materialized into
// fixed-width zero-filled rows in a second pass, so no result ever depends on
// map iteration order.
package analysis

import (
	"sort"
	"time"

	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/model"
)

// Engine computes aggregation tables from valid rows.
type Engine struct {
	rows []model.ValidRow
	cfg  config.Snapshot
}

// New creates an engine over the given rows and configuration snapshot.
// The rows are assumed to satisfy the valid-row invariants: every code is a
// tariff key, and the period is zero exactly when the reference date is nil.
func New(rows []model.ValidRow, cfg config.Snapshot) *Engine {
	return &Engine{rows: rows, cfg: cfg}
}

// Rows returns the number of valid rows.
func (e *Engine) Rows() int {
	return len(e.rows)
}

// CountsByPersonType returns one row per beneficiary with action counts per
// type and per tariff code, the type columns interleaved with their codes.
// Total sums the type columns only, so codes are not double counted.
func (e *Engine) CountsByPersonType() *model.Table {
	types := e.distinctTypes()

	countCols := make([]string, 0, len(types)+len(e.cfg.Tariffs))
	typeSet := make(map[string]struct{}, len(types))
	for _, typ := range types {
		countCols = append(countCols, typ)
		countCols = append(countCols, e.codesOfType(typ)...)
		typeSet[typ] = struct{}{}
	}

	counts := make(map[string]map[string]int)
	for _, row := range e.rows {
		labels := counts[row.Beneficiary]
		if labels == nil {
			labels = make(map[string]int)
			counts[row.Beneficiary] = labels
		}
		labels[row.Type]++
		labels[row.Code]++
	}

	columns := append([]string{"Beneficiary", "Operator"}, countCols...)
	columns = append(columns, "Total")
	tbl := model.NewTable("By Person-Type", columns...)

	operators := e.operatorByBeneficiary()
	for _, person := range e.beneficiaries() {
		cells := make([]any, 0, len(columns))
		cells = append(cells, person, operators[person])
		total := 0
		for _, label := range countCols {
			n := counts[person][label]
			cells = append(cells, n)
			if _, isType := typeSet[label]; isType {
				total += n
			}
		}
		cells = append(cells, total)
		tbl.AppendRow(cells...)
	}

	return tbl
}

// CountsByPersonTypeMonth returns one row per beneficiary with a column for
// every type/month combination present in the data. Combinations absent
// system-wide get no column; rows without a known period contribute none.
func (e *Engine) CountsByPersonTypeMonth() *model.Table {
	comboSet := make(map[string]struct{})
	counts := make(map[string]map[string]int)
	for _, row := range e.rows {
		if row.Period.IsZero() {
			continue
		}
		combo := row.Type + "_" + row.Period.String()
		comboSet[combo] = struct{}{}
		combos := counts[row.Beneficiary]
		if combos == nil {
			combos = make(map[string]int)
			counts[row.Beneficiary] = combos
		}
		combos[combo]++
	}

	combos := sortedKeys(comboSet)
	columns := append([]string{"Beneficiary", "Operator"}, combos...)
	tbl := model.NewTable("By Person-Type-Month", columns...)

	operators := e.operatorByBeneficiary()
	for _, person := range e.beneficiaries() {
		cells := make([]any, 0, len(columns))
		cells = append(cells, person, operators[person])
		for _, combo := range combos {
			cells = append(cells, counts[person][combo])
		}
		tbl.AppendRow(cells...)
	}

	return tbl
}

// CountsByType returns the count of every action type and code present,
// sorted by label, with a final TOTAL row counting all valid rows.
func (e *Engine) CountsByType() *model.Table {
	counts := make(map[string]int)
	for _, row := range e.rows {
		counts[row.Type]++
		counts[row.Code]++
	}

	tbl := model.NewTable("Type Totals", "Label", "Count")
	for _, label := range sortedMapKeys(counts) {
		tbl.AppendRow(label, counts[label])
	}
	tbl.AppendRow(model.TotalLabel, len(e.rows))

	return tbl
}

// CountsByTypeMonth returns one row per action type with a column for each
// period present, plus a TOTAL row summing every period column.
func (e *Engine) CountsByTypeMonth() *model.Table {
	types := e.distinctTypes()
	periods := e.distinctPeriods()

	counts := make(map[string]map[string]int)
	for _, row := range e.rows {
		if row.Period.IsZero() {
			continue
		}
		byPeriod := counts[row.Type]
		if byPeriod == nil {
			byPeriod = make(map[string]int)
			counts[row.Type] = byPeriod
		}
		byPeriod[row.Period.String()]++
	}

	columns := append([]string{"Type"}, periods...)
	tbl := model.NewTable("By Type-Month", columns...)

	totals := make([]int, len(periods))
	for _, typ := range types {
		cells := make([]any, 0, len(columns))
		cells = append(cells, typ)
		for i, period := range periods {
			n := counts[typ][period]
			cells = append(cells, n)
			totals[i] += n
		}
		tbl.AppendRow(cells...)
	}

	totalCells := make([]any, 0, len(columns))
	totalCells = append(totalCells, model.TotalLabel)
	for _, n := range totals {
		totalCells = append(totalCells, n)
	}
	tbl.AppendRow(totalCells...)

	return tbl
}

// CountsByOperator returns one row per operator with a column for every
// tariff code, zero-filled, plus a Total column summing the code columns.
func (e *Engine) CountsByOperator() *model.Table {
	codes := e.cfg.Codes()

	counts := make(map[string]map[string]int)
	for _, row := range e.rows {
		byCode := counts[row.Operator]
		if byCode == nil {
			byCode = make(map[string]int)
			counts[row.Operator] = byCode
		}
		byCode[row.Code]++
	}

	columns := append([]string{"Operator"}, codes...)
	columns = append(columns, "Total")
	tbl := model.NewTable("By Operator", columns...)

	for _, op := range sortedKeysOf(counts) {
		cells := make([]any, 0, len(columns))
		cells = append(cells, op)
		total := 0
		for _, code := range codes {
			n := counts[op][code]
			cells = append(cells, n)
			total += n
		}
		cells = append(cells, total)
		tbl.AppendRow(cells...)
	}

	return tbl
}

// CountsByOperatorMonth returns one row per (operator, period) pair present,
// with the same zero-filled tariff-code columns as CountsByOperator. Rows
// without a known period are omitted.
func (e *Engine) CountsByOperatorMonth() *model.Table {
	codes := e.cfg.Codes()

	type pair struct{ op, month string }
	counts := make(map[pair]map[string]int)
	for _, row := range e.rows {
		if row.Period.IsZero() {
			continue
		}
		key := pair{op: row.Operator, month: row.Period.String()}
		byCode := counts[key]
		if byCode == nil {
			byCode = make(map[string]int)
			counts[key] = byCode
		}
		byCode[row.Code]++
	}

	pairs := make([]pair, 0, len(counts))
	for key := range counts {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].op != pairs[j].op {
			return pairs[i].op < pairs[j].op
		}
		return pairs[i].month < pairs[j].month
	})

	columns := append([]string{"Operator", "Month"}, codes...)
	columns = append(columns, "Total")
	tbl := model.NewTable("By Operator-Month", columns...)

	for _, key := range pairs {
		cells := make([]any, 0, len(columns))
		cells = append(cells, key.op, key.month)
		total := 0
		for _, code := range codes {
			n := counts[key][code]
			cells = append(cells, n)
			total += n
		}
		cells = append(cells, total)
		tbl.AppendRow(cells...)
	}

	return tbl
}

// RevenueByMonth returns one row per period with the count of every tariff
// code, the revenue per code (count times rate, columns suffixed _rev), and
// TotalCount/TotalRevenue columns.
func (e *Engine) RevenueByMonth() *model.Table {
	codes := e.cfg.Codes()
	periods := e.distinctPeriods()

	counts := make(map[string]map[string]int)
	for _, row := range e.rows {
		if row.Period.IsZero() {
			continue
		}
		byCode := counts[row.Period.String()]
		if byCode == nil {
			byCode = make(map[string]int)
			counts[row.Period.String()] = byCode
		}
		byCode[row.Code]++
	}

	columns := append([]string{"Month"}, codes...)
	for _, code := range codes {
		columns = append(columns, code+"_rev")
	}
	columns = append(columns, "TotalCount", "TotalRevenue")
	tbl := model.NewTable("Revenue by Month", columns...)

	for _, period := range periods {
		cells := make([]any, 0, len(columns))
		cells = append(cells, period)
		totalCount := 0
		totalRevenue := 0.0
		for _, code := range codes {
			n := counts[period][code]
			cells = append(cells, n)
			totalCount += n
		}
		for _, code := range codes {
			revenue := float64(counts[period][code]) * e.cfg.Rate(code)
			cells = append(cells, revenue)
			totalRevenue += revenue
		}
		cells = append(cells, totalCount, totalRevenue)
		tbl.AppendRow(cells...)
	}

	return tbl
}

// RevenueSummary returns one row per tariff code present with its rate,
// count and revenue, plus a TOTAL row with a blank rate.
func (e *Engine) RevenueSummary() *model.Table {
	counts := e.countsByCode()

	tbl := model.NewTable("Revenue Summary", "Code", "Rate", "Count", "Revenue")
	totalCount := 0
	totalRevenue := 0.0
	for _, code := range sortedMapKeys(counts) {
		n := counts[code]
		revenue := float64(n) * e.cfg.Rate(code)
		tbl.AppendRow(code, e.cfg.Rate(code), n, revenue)
		totalCount += n
		totalRevenue += revenue
	}
	tbl.AppendRow(model.TotalLabel, nil, totalCount, totalRevenue)

	return tbl
}

// TotalRevenue sums count times rate over every tariff code. Codes with no
// occurrences contribute zero.
func (e *Engine) TotalRevenue() float64 {
	counts := e.countsByCode()
	total := 0.0
	for _, code := range e.cfg.Codes() {
		total += float64(counts[code]) * e.cfg.Rate(code)
	}
	return total
}

// TopPersons returns the n beneficiaries with the largest Total from
// CountsByPersonType, ties keeping the source order (beneficiary ascending).
func (e *Engine) TopPersons(n int) *model.Table {
	base := e.CountsByPersonType()
	totalIdx := base.ColumnIndex("Total")

	tbl := model.NewTable("Top Persons", base.Columns...)
	tbl.Rows = append(tbl.Rows, base.Rows...)
	sort.SliceStable(tbl.Rows, func(i, j int) bool {
		return tbl.Rows[i][totalIdx].(int) > tbl.Rows[j][totalIdx].(int)
	})
	if n >= 0 && n < len(tbl.Rows) {
		tbl.Rows = tbl.Rows[:n]
	}

	return tbl
}

// UsersByOperator counts distinct beneficiaries per operator, descending by
// count. The TOTAL row is the system-wide distinct count, not the column
// sum: a beneficiary followed by several operators over time is counted
// under each of them.
func (e *Engine) UsersByOperator() *model.Table {
	perOperator := make(map[string]map[string]struct{})
	all := make(map[string]struct{})
	for _, row := range e.rows {
		users := perOperator[row.Operator]
		if users == nil {
			users = make(map[string]struct{})
			perOperator[row.Operator] = users
		}
		users[row.Beneficiary] = struct{}{}
		all[row.Beneficiary] = struct{}{}
	}

	operators := make([]string, 0, len(perOperator))
	for op := range perOperator {
		operators = append(operators, op)
	}
	sort.Slice(operators, func(i, j int) bool {
		ni, nj := len(perOperator[operators[i]]), len(perOperator[operators[j]])
		if ni != nj {
			return ni > nj
		}
		return operators[i] < operators[j]
	})

	tbl := model.NewTable("Users by Operator", "Operator", "Users")
	for _, op := range operators {
		tbl.AppendRow(op, len(perOperator[op]))
	}
	tbl.AppendRow(model.TotalLabel, len(all))

	return tbl
}

// MonthlyTrend returns one row per period with the count of every action
// type and a Total column.
func (e *Engine) MonthlyTrend() *model.Table {
	types := e.distinctTypes()
	periods := e.distinctPeriods()

	counts := make(map[string]map[string]int)
	for _, row := range e.rows {
		if row.Period.IsZero() {
			continue
		}
		byType := counts[row.Period.String()]
		if byType == nil {
			byType = make(map[string]int)
			counts[row.Period.String()] = byType
		}
		byType[row.Type]++
	}

	columns := append([]string{"Month"}, types...)
	columns = append(columns, "Total")
	tbl := model.NewTable("Monthly Trend", columns...)

	for _, period := range periods {
		cells := make([]any, 0, len(columns))
		cells = append(cells, period)
		total := 0
		for _, typ := range types {
			n := counts[period][typ]
			cells = append(cells, n)
			total += n
		}
		cells = append(cells, total)
		tbl.AppendRow(cells...)
	}

	return tbl
}

// RevenueByCode returns count, rate and revenue per tariff code present,
// ascending by revenue so a horizontal bar chart reads smallest first.
func (e *Engine) RevenueByCode() *model.Table {
	counts := e.countsByCode()

	codes := sortedMapKeys(counts)
	sort.SliceStable(codes, func(i, j int) bool {
		ri := float64(counts[codes[i]]) * e.cfg.Rate(codes[i])
		rj := float64(counts[codes[j]]) * e.cfg.Rate(codes[j])
		return ri < rj
	})

	tbl := model.NewTable("Revenue by Code", "Code", "Count", "Rate", "Revenue")
	for _, code := range codes {
		n := counts[code]
		tbl.AppendRow(code, n, e.cfg.Rate(code), float64(n)*e.cfg.Rate(code))
	}

	return tbl
}

// Tables returns every aggregation table in a fixed order, keyed for lookup
// by the presentation layer.
func (e *Engine) Tables() []*model.Table {
	return []*model.Table{
		e.CountsByPersonType(),
		e.CountsByPersonTypeMonth(),
		e.CountsByType(),
		e.CountsByTypeMonth(),
		e.CountsByOperator(),
		e.CountsByOperatorMonth(),
		e.RevenueByMonth(),
		e.RevenueSummary(),
		e.UsersByOperator(),
		e.MonthlyTrend(),
		e.RevenueByCode(),
	}
}

// operatorByBeneficiary picks the operator of each beneficiary's most
// recently dated row. Ties on the reference date go to the later row in
// input order; rows without a reference date rank below any dated row.
func (e *Engine) operatorByBeneficiary() map[string]string {
	type pick struct {
		date  time.Time
		dated bool
		index int
		op    string
	}

	best := make(map[string]pick)
	for i, row := range e.rows {
		cand := pick{index: i, op: row.Operator}
		if row.RefDate != nil {
			cand.date = *row.RefDate
			cand.dated = true
		}

		cur, ok := best[row.Beneficiary]
		if !ok || beats(cand.date, cand.dated, cur.date, cur.dated) {
			best[row.Beneficiary] = cand
		}
	}

	out := make(map[string]string, len(best))
	for person, p := range best {
		out[person] = p.op
	}
	return out
}

// beats reports whether candidate (a) replaces current (b). Equal standing
// returns true so the later row in input order wins.
func beats(aDate time.Time, aDated bool, bDate time.Time, bDated bool) bool {
	if aDated != bDated {
		return aDated
	}
	if !aDate.Equal(bDate) {
		return aDate.After(bDate)
	}
	return true
}

func (e *Engine) countsByCode() map[string]int {
	counts := make(map[string]int)
	for _, row := range e.rows {
		counts[row.Code]++
	}
	return counts
}

func (e *Engine) distinctTypes() []string {
	set := make(map[string]struct{})
	for _, row := range e.rows {
		set[row.Type] = struct{}{}
	}
	return sortedKeys(set)
}

func (e *Engine) distinctPeriods() []string {
	set := make(map[string]struct{})
	for _, row := range e.rows {
		if row.Period.IsZero() {
			continue
		}
		set[row.Period.String()] = struct{}{}
	}
	return sortedKeys(set)
}

func (e *Engine) beneficiaries() []string {
	set := make(map[string]struct{})
	for _, row := range e.rows {
		set[row.Beneficiary] = struct{}{}
	}
	return sortedKeys(set)
}

// codesOfType returns the tariff codes starting with the given type letter.
func (e *Engine) codesOfType(typ string) []string {
	var codes []string
	for _, code := range e.cfg.Codes() {
		if model.CodeType(code) == typ {
			codes = append(codes, code)
		}
	}
	return codes
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedMapKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysOf(m map[string]map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
