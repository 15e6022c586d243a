package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/veredas/adscope/internal/query"
	"github.com/veredas/adscope/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(store.StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing dump: %v", err)
	}
	return path
}

const fixtureDump = `[
  {
    "competitor": "Stone",
    "media_type": "video",
    "tags": "maquininha,promo",
    "transcription": "taxa de crédito de 2,99%",
    "source_url": "https://www.facebook.com/ads/1",
    "published_at": "2026-03-01T10:00:00-03:00",
    "ad_analysis": {"rates": {"credit": "2,99%", "debit": "", "pix": ""}}
  },
  {
    "competitor": "Cielo",
    "media_type": "banner",
    "image_description": "maquininha com taxa zero",
    "source_url": "https://www.instagram.com/ads/2",
    "published_at": "2026-03-02"
  },
  {
    "competitor": "",
    "transcription": "sem competidor",
    "published_at": "2026-03-03"
  },
  {
    "competitor": "Nubank",
    "transcription": "data inválida",
    "published_at": "03/03/2026"
  }
]`

func TestImportFile(t *testing.T) {
	s := newTestStore(t)
	engine := NewEngine(s)

	result, err := engine.ImportFile(context.Background(), writeDump(t, fixtureDump), ImportOptions{})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 2 {
		t.Errorf("result = %+v, want 2 imported, 2 skipped", result)
	}

	ads, err := s.QueryAds(context.Background(), query.Predicate{}, 0, 0)
	if err != nil {
		t.Fatalf("QueryAds: %v", err)
	}
	if len(ads) != 2 {
		t.Fatalf("got %d ads in store, want 2", len(ads))
	}

	// Unknown media type falls back to image; structured rates survive.
	for _, ad := range ads {
		if ad.CompetitorName == "Stone" {
			if ad.MediaType != query.MediaVideo {
				t.Errorf("Stone ad media = %q, want video", ad.MediaType)
			}
			if ad.Rates == nil || ad.Rates.Credit != "2,99%" {
				t.Errorf("Stone ad rates = %+v", ad.Rates)
			}
		}
		if ad.CompetitorName == "Cielo" && ad.MediaType != query.MediaImage {
			t.Errorf("Cielo ad media = %q, want image fallback", ad.MediaType)
		}
	}
}

func TestImportFileDryRun(t *testing.T) {
	s := newTestStore(t)
	engine := NewEngine(s)

	result, err := engine.ImportFile(context.Background(), writeDump(t, fixtureDump), ImportOptions{DryRun: true})
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("dry run imported = %d, want 2", result.Imported)
	}

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.AdCount != 0 || stats.CompetitorCount != 0 {
		t.Errorf("dry run wrote to the store: %+v", stats)
	}
}

func TestImportFileMalformedJSON(t *testing.T) {
	s := newTestStore(t)
	engine := NewEngine(s)

	if _, err := engine.ImportFile(context.Background(), writeDump(t, "{not json"), ImportOptions{}); err == nil {
		t.Error("expected error for malformed dump")
	}
}

func TestImportFileMissing(t *testing.T) {
	s := newTestStore(t)
	engine := NewEngine(s)

	if _, err := engine.ImportFile(context.Background(), "/does/not/exist.json", ImportOptions{}); err == nil {
		t.Error("expected error for missing file")
	}
}
