package history

import (
	"testing"

	"github.com/bobmcallan/egxtrends/internal/models"
)

func TestRunTracker_DiscardsSupersededRuns(t *testing.T) {
	tracker := NewRunTracker()

	first := tracker.Begin("EGX30")
	second := tracker.Begin("EGX30")
	if first == second {
		t.Fatal("tokens must be unique")
	}

	if tracker.Commit("EGX30", second, &models.Analysis{DisplayDays: 2}) != true {
		t.Fatal("newest run was rejected")
	}
	// the earlier run finishes late
	if tracker.Commit("EGX30", first, &models.Analysis{DisplayDays: 1}) {
		t.Fatal("superseded run was accepted")
	}

	latest, ok := tracker.Latest("EGX30")
	if !ok || latest.DisplayDays != 2 {
		t.Fatalf("latest = %+v, want the second run", latest)
	}
	if latest.RunID != second {
		t.Errorf("RunID = %q, want token %q", latest.RunID, second)
	}
}

func TestRunTracker_KeysAreIndependent(t *testing.T) {
	tracker := NewRunTracker()

	a := tracker.Begin("EGX30")
	b := tracker.Begin("EGX70")

	if !tracker.Commit("EGX30", a, &models.Analysis{}) || !tracker.Commit("EGX70", b, &models.Analysis{}) {
		t.Fatal("independent keys must not supersede each other")
	}
	if tracker.Current("EGX30") != a {
		t.Errorf("Current(EGX30) = %q, want %q", tracker.Current("EGX30"), a)
	}
	if _, ok := tracker.Latest("unknown"); ok {
		t.Error("Latest(unknown) should miss")
	}
	if tracker.Commit("unknown", "", &models.Analysis{}) {
		t.Error("commit without Begin must be rejected")
	}
}
