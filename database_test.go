package main

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if v := db.GetSetting("motd"); v != "" {
		t.Errorf("unset setting = %q", v)
	}
	if err := db.SetSetting("motd", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSetting("motd", "again"); err != nil {
		t.Fatal(err)
	}
	if v := db.GetSetting("motd"); v != "again" {
		t.Errorf("setting = %q, want again", v)
	}
}

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db, nil)
	a.Track(EvtSessionStart, "s1", "", "")
	a.Track(EvtPlayerJoin, "s1", "ab12", "")
	a.Track(EvtEffectRelayed, "s1", "ab12", "blizzard")
	a.Track(EvtEffectRelayed, "s1", "cd34", "smite_nova")
	a.Stop()
	a.Stop()

	// Dropped after stop
	a.Track(EvtSessionEnd, "s1", "", "")

	counts, err := a.EventCounts(7)
	if err != nil {
		t.Fatal(err)
	}
	if counts[EvtEffectRelayed] != 2 || counts[EvtPlayerJoin] != 1 || counts[EvtSessionStart] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if _, ok := counts[EvtSessionEnd]; ok {
		t.Error("event tracked after Stop was written")
	}
	n, err := a.ActivePeers(7)
	if err != nil || n != 2 {
		t.Errorf("ActivePeers = %d, %v", n, err)
	}
}

func TestAnalyticsWithoutDB(t *testing.T) {
	a := NewAnalytics(nil, nil)
	a.Track(EvtSessionStart, "s1", "", "")
	a.Stop()
	counts, err := a.EventCounts(7)
	if err != nil || len(counts) != 0 {
		t.Errorf("EventCounts = %v, %v", counts, err)
	}
}
