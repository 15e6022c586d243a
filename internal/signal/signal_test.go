package signal

import (
	"testing"

	"github.com/veredas/adscope/internal/store"
)

func extract(t *testing.T, ad *store.Ad) Observations {
	t.Helper()
	return NewExtractor().Extract(ad)
}

func TestStructuredRates(t *testing.T) {
	obs := extract(t, &store.Ad{
		ID:    7,
		Rates: &store.RateAnalysis{Credit: "2,49%", Debit: "1.39%", Pix: "0%"},
	})

	if len(obs.Fees) != 2 {
		t.Fatalf("got %d fees, want 2 (0%% sentinel dropped): %+v", len(obs.Fees), obs.Fees)
	}
	if obs.Fees[0].Label != LabelCredito || obs.Fees[0].Value != 2.49 {
		t.Errorf("first fee = %+v, want credito 2.49", obs.Fees[0])
	}
	if obs.Fees[1].Label != LabelDebito || obs.Fees[1].Value != 1.39 {
		t.Errorf("second fee = %+v, want debito 1.39", obs.Fees[1])
	}
	if obs.Fees[0].SourceRecordID != 7 {
		t.Errorf("SourceRecordID = %d, want 7", obs.Fees[0].SourceRecordID)
	}
	if !obs.HasFeeMention {
		t.Error("HasFeeMention should be set")
	}
}

func TestStructuredShortCircuitSkipsFreeText(t *testing.T) {
	obs := extract(t, &store.Ad{
		ID:            1,
		Rates:         &store.RateAnalysis{Credit: "2,49%"},
		Transcription: "aproveite 10% de cashback e rendimento de 110% do cdi",
	})

	if len(obs.Fees) != 1 || obs.Fees[0].Label != LabelCredito {
		t.Fatalf("fees = %+v, want only the structured credito", obs.Fees)
	}
	if len(obs.Offers) != 0 {
		t.Errorf("free text was scanned despite structured data: %+v", obs.Offers)
	}
}

func TestStructuredOutOfBoundsRejected(t *testing.T) {
	obs := extract(t, &store.Ad{
		Rates: &store.RateAnalysis{Credit: "45%", Debit: "abc"},
	})
	if len(obs.Fees) != 0 || obs.HasFeeMention {
		t.Errorf("implausible structured values must be dropped: %+v", obs)
	}
	// Still no free-text fallback: the sub-record is present.
	if len(obs.Offers) != 0 {
		t.Errorf("offers = %+v, want none", obs.Offers)
	}
}

func TestFreeTextFeeAndOffer(t *testing.T) {
	obs := extract(t, &store.Ad{
		ID:            3,
		Transcription: "taxa de crédito de 2,99% e rendimento de 105% do CDI",
	})

	if len(obs.Fees) != 1 {
		t.Fatalf("fees = %+v, want one credito", obs.Fees)
	}
	if obs.Fees[0].Label != LabelCredito || obs.Fees[0].Value != 2.99 {
		t.Errorf("fee = %+v, want credito 2.99", obs.Fees[0])
	}

	if len(obs.Offers) != 1 {
		t.Fatalf("offers = %+v, want one rendimento", obs.Offers)
	}
	if obs.Offers[0].Label != LabelRendimento || obs.Offers[0].Value != 105 {
		t.Errorf("offer = %+v, want rendimento 105", obs.Offers[0])
	}
	if !obs.HasFeeMention {
		t.Error("HasFeeMention should be set")
	}
}

func TestFreeTextRailSubClassification(t *testing.T) {
	cases := []struct {
		text string
		want Label
	}{
		{"taxa no débito de 1,39%", LabelDebito},
		{"pix com taxa de 0,99%", LabelPix},
		{"antecipação a 4,5%", LabelAntecipacao},
		{"mensalidade de 2%", LabelMensalidade},
	}
	for _, tc := range cases {
		obs := extract(t, &store.Ad{Transcription: tc.text})
		if len(obs.Fees) != 1 || obs.Fees[0].Label != tc.want {
			t.Errorf("%q: fees = %+v, want one %s", tc.text, obs.Fees, tc.want)
		}
	}
}

func TestFreeTextUnlabeledFeeCountsMentionOnly(t *testing.T) {
	obs := extract(t, &store.Ad{Transcription: "taxa promocional de 1,99% na maquininha"})

	if len(obs.Fees) != 0 {
		t.Errorf("fees = %+v, want no labeled bucket", obs.Fees)
	}
	if !obs.HasFeeMention {
		t.Error("in-range mention without rail vocabulary still flags the record")
	}
}

func TestFreeTextNoise(t *testing.T) {
	// In (30,200] without yield vocabulary: noise.
	obs := extract(t, &store.Ad{Transcription: "desconto de 50% na adesão"})
	if len(obs.Fees) != 0 || len(obs.Offers) != 0 || obs.HasFeeMention {
		t.Errorf("50%% without yield vocabulary must be noise: %+v", obs)
	}
}

func TestOfferRequiresYieldVocabularyAndRange(t *testing.T) {
	// Yield vocabulary but value in fee range: classified as a fee context
	// miss, not an offer.
	obs := extract(t, &store.Ad{Transcription: "cashback de 10% hoje"})
	if len(obs.Offers) != 0 {
		t.Errorf("10%% cashback is below the offer range: %+v", obs.Offers)
	}
	if !obs.HasFeeMention {
		t.Error("in-range unlabeled mention still counts")
	}
}

func TestDisjointBuckets(t *testing.T) {
	obs := extract(t, &store.Ad{
		Transcription: "crédito 2,99% debito 1,39% rendimento de 110% do cdi cdb a 120% poupança",
	})
	for _, f := range obs.Fees {
		if f.Value <= 0 || f.Value > 30 {
			t.Errorf("fee value %v outside (0,30]", f.Value)
		}
	}
	for _, o := range obs.Offers {
		if o.Value <= 30 || o.Value > 200 {
			t.Errorf("offer value %v outside (30,200]", o.Value)
		}
	}
}

func TestScanTextIncludesDescriptionAndTags(t *testing.T) {
	obs := extract(t, &store.Ad{
		ImageDescription: "banner anunciando crédito 3,49%",
		Tags:             "maquininha, taxa zero, promoção, pix 0,99%",
	})
	if len(obs.Fees) != 2 {
		t.Fatalf("fees = %+v, want credito and pix", obs.Fees)
	}
	if obs.Fees[0].Label != LabelCredito || obs.Fees[1].Label != LabelPix {
		t.Errorf("labels = %s, %s, want credito, pix", obs.Fees[0].Label, obs.Fees[1].Label)
	}
}
