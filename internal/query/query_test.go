package query

import (
	"reflect"
	"testing"
	"time"
)

var testPlatforms = map[string][]string{
	"meta":   {"facebook.", "instagram."},
	"tiktok": {"tiktok."},
}

func TestResolveDaySpanExpansion(t *testing.T) {
	p, err := Resolve(Criteria{DateFrom: "2026-03-01", DateTo: "2026-03-01"}, testPlatforms)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	wantFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, LocalOffset())
	wantUntil := time.Date(2026, 3, 2, 0, 0, 0, 0, LocalOffset())
	if !p.PublishedFrom.Equal(wantFrom) {
		t.Errorf("PublishedFrom = %v, want %v", p.PublishedFrom, wantFrom)
	}
	if !p.PublishedUntil.Equal(wantUntil) {
		t.Errorf("PublishedUntil = %v, want %v", p.PublishedUntil, wantUntil)
	}

	// The -03:00 day start is 03:00 UTC.
	if got := p.PublishedFrom.UTC().Hour(); got != 3 {
		t.Errorf("day start UTC hour = %d, want 3", got)
	}
}

func TestResolveRejectsInvertedRange(t *testing.T) {
	if _, err := Resolve(Criteria{DateFrom: "2026-03-02", DateTo: "2026-03-01"}, testPlatforms); err == nil {
		t.Error("expected error for inverted date range")
	}
}

func TestResolveRejectsBadDateAndMediaType(t *testing.T) {
	if _, err := Resolve(Criteria{DateFrom: "01/03/2026"}, testPlatforms); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := Resolve(Criteria{MediaTypes: []string{"audio"}}, testPlatforms); err == nil {
		t.Error("expected error for unknown media type")
	}
}

func TestResolveNormalizesMediaTypes(t *testing.T) {
	p, err := Resolve(Criteria{MediaTypes: []string{" Image ", "VIDEO", ""}}, testPlatforms)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(p.MediaTypes, []string{"image", "video"}) {
		t.Errorf("MediaTypes = %v", p.MediaTypes)
	}
}

func TestResolvePlatformByName(t *testing.T) {
	p, err := Resolve(Criteria{Platform: "Meta"}, testPlatforms)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(p.PlatformFragments, []string{"facebook.", "instagram."}) {
		t.Errorf("PlatformFragments = %v", p.PlatformFragments)
	}
}

func TestResolvePlatformByFragment(t *testing.T) {
	p, err := Resolve(Criteria{Platform: "facebook.com"}, testPlatforms)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(p.PlatformFragments, []string{"facebook.", "instagram."}) {
		t.Errorf("PlatformFragments = %v", p.PlatformFragments)
	}
}

func TestResolveUnknownPlatformFallsBackToHint(t *testing.T) {
	p, err := Resolve(Criteria{Platform: "Pinterest"}, testPlatforms)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(p.PlatformFragments, []string{"pinterest"}) {
		t.Errorf("PlatformFragments = %v", p.PlatformFragments)
	}
}

func TestMatchesSearch(t *testing.T) {
	if !MatchesSearch("Taxa", "promoção sem TAXA de adesão", "") {
		t.Error("expected case-insensitive match")
	}
	if MatchesSearch("pix", "maquininha", "cartão") {
		t.Error("unexpected match")
	}
	if !MatchesSearch("", "anything") {
		t.Error("empty term must match everything")
	}
}

func TestHasContentGate(t *testing.T) {
	if HasContent("", "  ", "\t") {
		t.Error("blank fields must fail the quality gate")
	}
	if !HasContent("", "uma descrição") {
		t.Error("one non-empty field must pass the gate")
	}
}
