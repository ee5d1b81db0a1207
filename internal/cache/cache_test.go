package cache

import (
	"strings"
	"testing"
	"time"
)

// fakeClock returns a settable now func for expiry tests.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestSetGetRoundTrip(t *testing.T) {
	c := New(0)

	key := IssuesKey("octo", "memos", 1, nil)
	c.Set(key, []string{"a", "b"}, Options{Expiry: IssuesTTL})

	var got []string
	if !c.Get(key, &got) {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0] != "a" {
		t.Errorf("unexpected value: %v", got)
	}
}

func TestExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewWithClock(0, clock.now)

	key := LabelsKey("octo", "memos")
	c.Set(key, "value", Options{Expiry: 15 * time.Minute})

	clock.advance(14 * time.Minute)
	var got string
	if !c.Get(key, &got) {
		t.Fatal("expected hit before expiry")
	}

	clock.advance(2 * time.Minute)
	if c.Get(key, &got) {
		t.Fatal("expected miss after expiry")
	}

	// Expired entries must not resurrect.
	if c.Has(key) {
		t.Error("expected Has to report false after expiry")
	}
	if c.Stats().Size != 0 {
		t.Errorf("expected expired entry to be removed, size=%d", c.Stats().Size)
	}
}

func TestCorruptEntryIsMissAndRemoved(t *testing.T) {
	c := New(0)

	key := Key(CategoryConfig, "octo", "memos")
	c.Set(key, "a string", Options{Expiry: ConfigTTL})

	// Deserializing into an incompatible type behaves like corruption.
	var got int
	if c.Get(key, &got) {
		t.Fatal("expected miss for incompatible entry")
	}
	if c.Has(key) {
		t.Error("expected corrupt entry to be removed")
	}
}

func TestVersionMismatchInvalidates(t *testing.T) {
	c := New(0)

	key := LabelsKey("octo", "memos")
	c.Set(key, "value", Options{Expiry: LabelsTTL, Version: "0"})

	var got string
	if c.Get(key, &got) {
		t.Fatal("expected miss for stale version")
	}
	if c.Has(key) {
		t.Error("expected stale-version entry to be removed")
	}
}

func TestCapacitySweepAndDrop(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewWithClock(2, clock.now)

	c.Set(Key(CategoryIssues, "o", "r", "1"), 1, Options{Expiry: time.Minute})
	c.Set(Key(CategoryIssues, "o", "r", "2"), 2, Options{Expiry: time.Minute})

	// Cache full with live entries: the write is dropped, not an error.
	c.Set(Key(CategoryIssues, "o", "r", "3"), 3, Options{Expiry: time.Minute})
	if c.Has(Key(CategoryIssues, "o", "r", "3")) {
		t.Fatal("expected write to be dropped when full")
	}
	if c.Stats().Size != 2 {
		t.Fatalf("expected size 2, got %d", c.Stats().Size)
	}

	// After the existing entries expire, a sweep makes room.
	clock.advance(2 * time.Minute)
	c.Set(Key(CategoryIssues, "o", "r", "3"), 3, Options{Expiry: time.Minute})
	if !c.Has(Key(CategoryIssues, "o", "r", "3")) {
		t.Error("expected sweep to free room for the write")
	}
}

func TestOverwriteExistingKeyWhenFull(t *testing.T) {
	c := New(1)

	key := IssuesKey("o", "r", 1, nil)
	c.Set(key, 1, Options{Expiry: time.Minute})
	c.Set(key, 2, Options{Expiry: time.Minute})

	var got int
	if !c.Get(key, &got) || got != 2 {
		t.Errorf("expected overwrite to succeed, got %d", got)
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := New(0)

	c.Set(LabelsKey("o", "r"), "x", Options{Expiry: time.Minute})
	c.Set(ConfigKey("o", "r"), "y", Options{Expiry: time.Minute})

	c.Remove(LabelsKey("o", "r"))
	if c.Has(LabelsKey("o", "r")) {
		t.Error("expected removed key to be absent")
	}

	c.Clear()
	if c.Stats().Size != 0 {
		t.Errorf("expected empty cache after clear, size=%d", c.Stats().Size)
	}
}

func TestKeyNamespacing(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{IssuesKey("octo", "memos", 1, nil), "memomirror:issues:octo:memos:1:"},
		{IssuesKey("octo", "memos", 2, []string{"bug", "ui"}), "memomirror:issues:octo:memos:2:bug,ui"},
		{IssueKey("octo", "memos", 7), "memomirror:issues:octo:memos:one:7"},
		{LabelsKey("octo", "memos"), "memomirror:labels:octo:memos"},
		{ConfigKey("octo", "memos"), "memomirror:config:octo:memos"},
	}

	for _, tt := range tests {
		if tt.key != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.key)
		}
		if !strings.HasPrefix(tt.key, keyPrefix) {
			t.Errorf("key %q missing namespace prefix", tt.key)
		}
	}
}
