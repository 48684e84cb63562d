package main

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/fubuki/internal"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/recognition"
	"github.com/starford/fubuki/internal/store"
)

func TestRenderHistory(t *testing.T) {
	progress, volumes := 39, 2
	out := renderHistory([]store.UpdateRecord{
		{
			Title: "Kingdom", Category: models.CategoryManga, Status: models.StatusCurrent,
			Progress: &progress, ProgressVolumes: &volumes, Outcome: store.OutcomeFailed,
			Error: "rate limited", CreatedAt: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
		},
	})
	for _, want := range []string{"Kingdom", "39 (vol. 2)", "failed: rate limited", "CURRENT"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHistory_Empty(t *testing.T) {
	if out := renderHistory(nil); out != "No updates recorded\n" {
		t.Errorf("out = %q", out)
	}
}

func TestRenderDetection(t *testing.T) {
	ep := 5.0
	out := renderDetection(internal.Detection{
		Detected:    true,
		Media:       &recognition.Media{Title: "Sousou no Frieren", Category: models.CategoryAnime, Progress: &ep},
		Description: "Watching Episode 5",
		Windows:     3,
	})
	if !strings.Contains(out, "Sousou no Frieren") || !strings.Contains(out, "Watching Episode 5") {
		t.Errorf("output:\n%s", out)
	}

	if out := renderDetection(internal.Detection{Windows: 3}); out != "Nothing recognized in 3 windows\n" {
		t.Errorf("miss output = %q", out)
	}
}

func TestUseTable_ForceJSON(t *testing.T) {
	if useTable(nil, false) || useTable(nil, true) {
		t.Error("nil file must not render a table")
	}
}
