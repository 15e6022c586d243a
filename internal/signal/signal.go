// Package signal extracts numeric commercial signals from harvested ads:
// transaction fees (credit/debit/PIX/anticipation/monthly) and
// yield/cashback offers ("100% do CDI").
//
// Extraction is deterministic regex work, no NLP model: percent-like
// mentions are located in the ad's free text and classified by an ordered
// rule table over a ±40 character context window. Value ranges keep the
// buckets disjoint — plausible transaction fees live in (0,30], yield
// offers in (30,200], everything else is noise.
package signal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/veredas/adscope/internal/store"
)

// Label identifies a fee or offer bucket.
type Label string

const (
	LabelCredito     Label = "credito"
	LabelDebito      Label = "debito"
	LabelPix         Label = "pix"
	LabelAntecipacao Label = "antecipacao"
	LabelMensalidade Label = "mensalidade"
	LabelRendimento  Label = "rendimento"
)

// Fee and offer bounds. Ranges are half-open at the low end: a literal
// "0%" is an explicit zero-rate mention and carries no fee signal.
const (
	feeMin   = 0.0
	feeMax   = 30.0
	offerMin = 30.0
	offerMax = 200.0
)

// contextWindow is the number of bytes inspected on each side of a
// percent match when classifying it.
const contextWindow = 40

// FeeObservation is one extracted transaction-fee signal.
type FeeObservation struct {
	Label          Label   `json:"label"`
	Value          float64 `json:"value"`
	SourceRecordID int64   `json:"source_record_id"`
}

// OfferObservation is one extracted yield/cashback signal.
type OfferObservation struct {
	Label          Label   `json:"label"`
	Value          float64 `json:"value"`
	SourceRecordID int64   `json:"source_record_id"`
}

// Observations is the per-record extraction output. HasFeeMention is set
// at most once per record, regardless of how many percent mentions it
// contains, and also covers in-range mentions that matched no rail
// vocabulary and therefore got no labeled bucket.
type Observations struct {
	Fees          []FeeObservation
	Offers        []OfferObservation
	HasFeeMention bool
}

// rule is one entry of the ordered classification table: a context
// pattern plus the half-open value range (min, max] it accepts. Rules are
// evaluated top to bottom; the first match wins.
type rule struct {
	label    Label
	context  *regexp.Regexp
	min, max float64
	offer    bool
}

// percentRE finds percent-like numeric mentions: up to three integer
// digits (offers reach 200), optional 1-2 decimals with either separator,
// optional whitespace before the sign.
var percentRE = regexp.MustCompile(`(\d{1,3}(?:[.,]\d{1,2})?)\s?%`)

// Extractor classifies percent mentions in ad text.
type Extractor struct {
	rules []rule
}

// NewExtractor builds an extractor with the standard rule table. The
// yield rule is checked first so "105% do CDI" never lands in a fee
// bucket; rail sub-rules follow in their fixed priority order.
func NewExtractor() *Extractor {
	return &Extractor{
		rules: []rule{
			{label: LabelRendimento, context: regexp.MustCompile(`cdi|rend|cashback|cdb|poupan`), min: offerMin, max: offerMax, offer: true},
			{label: LabelCredito, context: regexp.MustCompile(`cr[eé]dit`), min: feeMin, max: feeMax},
			{label: LabelDebito, context: regexp.MustCompile(`d[eé]bit`), min: feeMin, max: feeMax},
			{label: LabelPix, context: regexp.MustCompile(`\bpix\b`), min: feeMin, max: feeMax},
			{label: LabelAntecipacao, context: regexp.MustCompile(`antecip`), min: feeMin, max: feeMax},
			{label: LabelMensalidade, context: regexp.MustCompile(`mensal`), min: feeMin, max: feeMax},
		},
	}
}

// Extract runs per-record extraction. Structured and free-text extraction
// are mutually exclusive: an ad carrying a non-empty structured rate
// sub-record never has its free text scanned, so the same signal cannot
// be counted from both sources.
func (e *Extractor) Extract(ad *store.Ad) Observations {
	if !ad.Rates.Empty() {
		return e.extractStructured(ad)
	}
	return e.extractFreeText(ad)
}

// extractStructured reads the explicit rate fields harvested by the
// analysis pipeline. Each is a percent string like "2,49%"; values
// outside (0,30] — including the "0%" sentinel — are skipped.
func (e *Extractor) extractStructured(ad *store.Ad) Observations {
	var obs Observations
	for _, f := range []struct {
		label Label
		raw   string
	}{
		{LabelCredito, ad.Rates.Credit},
		{LabelDebito, ad.Rates.Debit},
		{LabelPix, ad.Rates.Pix},
	} {
		v, ok := parsePercent(f.raw)
		if !ok || v <= feeMin || v > feeMax {
			continue
		}
		obs.Fees = append(obs.Fees, FeeObservation{Label: f.label, Value: v, SourceRecordID: ad.ID})
		obs.HasFeeMention = true
	}
	return obs
}

// extractFreeText scans the concatenated narration, image description and
// tag string for percent mentions and classifies each against the rule
// table using its context window.
func (e *Extractor) extractFreeText(ad *store.Ad) Observations {
	var obs Observations

	text := strings.ToLower(ad.Transcription + " " + ad.ImageDescription + " " + ad.Tags)
	matches := percentRE.FindAllStringSubmatchIndex(text, -1)
	for _, m := range matches {
		v, ok := parseNumber(text[m[2]:m[3]])
		if !ok {
			continue
		}

		window := contextAround(text, m[0], m[1])

		labeled := false
		for _, r := range e.rules {
			if v <= r.min || v > r.max {
				continue
			}
			if !r.context.MatchString(window) {
				continue
			}
			if r.offer {
				obs.Offers = append(obs.Offers, OfferObservation{Label: r.label, Value: v, SourceRecordID: ad.ID})
			} else {
				obs.Fees = append(obs.Fees, FeeObservation{Label: r.label, Value: v, SourceRecordID: ad.ID})
				obs.HasFeeMention = true
			}
			labeled = true
			break
		}

		// An in-range mention with no rail vocabulary still signals
		// "this ad talks about a fee"; anything else is noise.
		if !labeled && v > feeMin && v <= feeMax {
			obs.HasFeeMention = true
		}
	}

	return obs
}

// contextAround returns up to contextWindow bytes before and after the
// match span.
func contextAround(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// parsePercent parses a percent-formatted string ("2,49%", "3.5 %").
func parsePercent(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return 0, false
	}
	return parseNumber(raw)
}

// parseNumber parses a number with either decimal separator.
func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
