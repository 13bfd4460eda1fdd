package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/rollup"
)

// Team rolls the filtered match rows up to team level.
func (e *Engine) Team(f Filter) (model.TeamSummary, error) {
	rows := e.Rows(f)
	if len(rows) == 0 {
		return model.TeamSummary{}, ErrNoData
	}
	return rollup.Rollup(rollup.Joined(rows), e.opts.Parser), nil
}

// TransferLine totals one transfer type.
type TransferLine struct {
	Type  model.TransferType `json:"type"`
	Count int                `json:"count"`
	Fees  decimal.Decimal    `json:"fees"`
	// Splits counts entries whose value is a percentage (sell-on or loan wage
	// split) rather than a fee.
	Splits   int `json:"splits"`
	Unparsed int `json:"unparsed"`
}

// TransferSummary is the transfer ledger for one season or the whole save.
type TransferSummary struct {
	Season   string          `json:"season"`
	Lines    []TransferLine  `json:"lines"`
	Spent    decimal.Decimal `json:"spent"`
	Received decimal.Decimal `json:"received"`
	Net      decimal.Decimal `json:"net"`
}

// Transfers summarises the transfer log for season ("" or "all" for every
// season), one line per type in form order. Fees count as spent for incoming
// types and received for outgoing ones.
func (e *Engine) Transfers(season string) TransferSummary {
	all := season == "" || strings.EqualFold(season, AllSeasons)
	sum := TransferSummary{Season: season}
	if all {
		sum.Season = AllSeasons
	}
	lines := make(map[model.TransferType]*TransferLine)
	for _, tt := range model.TransferTypes {
		lines[tt] = &TransferLine{Type: tt}
	}

	for _, t := range e.data.Transfers {
		if !all && strings.TrimSpace(t.Season) != season {
			continue
		}
		line, ok := lines[t.TransferType]
		if !ok {
			line = &TransferLine{Type: t.TransferType}
			lines[t.TransferType] = line
		}
		line.Count++
		fee, kind := ParseFee(t.TransferValue)
		switch kind {
		case FeeSplit:
			line.Splits++
			continue
		case FeeUnknown:
			line.Unparsed++
			continue
		}
		line.Fees = line.Fees.Add(fee)
		if t.TransferType.Incoming() {
			sum.Spent = sum.Spent.Add(fee)
		} else {
			sum.Received = sum.Received.Add(fee)
		}
	}

	for _, tt := range model.TransferTypes {
		sum.Lines = append(sum.Lines, *lines[tt])
		delete(lines, tt)
	}
	// Types outside the form's list follow in name order.
	extra := make([]string, 0, len(lines))
	for tt := range lines {
		extra = append(extra, string(tt))
	}
	sort.Strings(extra)
	for _, tt := range extra {
		sum.Lines = append(sum.Lines, *lines[model.TransferType(tt)])
	}
	sum.Net = sum.Received.Sub(sum.Spent)
	return sum
}

// FeeKind classifies a freeform transfer value.
type FeeKind int

const (
	FeeMoney FeeKind = iota
	FeeSplit
	FeeUnknown
)

var feeMultipliers = map[string]decimal.Decimal{
	"k": decimal.NewFromInt(1_000),
	"m": decimal.NewFromInt(1_000_000),
	"b": decimal.NewFromInt(1_000_000_000),
}

// ParseFee reads values such as "£12.5M", "$750K", "1,200,000", "Free" and
// "50%". Percentages are reported as FeeSplit with their number as fee.
func ParseFee(raw string) (decimal.Decimal, FeeKind) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "free", "-", "0":
		return decimal.Zero, FeeMoney
	}
	if strings.HasSuffix(s, "%") {
		d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		if err != nil {
			return decimal.Zero, FeeUnknown
		}
		return d, FeeSplit
	}
	s = strings.NewReplacer("£", "", "$", "", "€", "", ",", "", " ", "").Replace(s)
	mult := decimal.NewFromInt(1)
	if n := len(s); n > 0 {
		if m, ok := feeMultipliers[s[n-1:]]; ok {
			mult = m
			s = s[:n-1]
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, FeeUnknown
	}
	return d.Mul(mult), FeeMoney
}

// FormatFee renders a fee with a K/M suffix.
func FormatFee(d decimal.Decimal) string {
	abs := d.Abs()
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	switch {
	case abs.GreaterThanOrEqual(feeMultipliers["m"]):
		return fmt.Sprintf("%s%sM", sign, abs.Div(feeMultipliers["m"]).StringFixed(2))
	case abs.GreaterThanOrEqual(feeMultipliers["k"]):
		return fmt.Sprintf("%s%sK", sign, abs.Div(feeMultipliers["k"]).StringFixed(1))
	}
	return sign + abs.String()
}
