package rulecache

import (
	"fmt"
	"sync"
	"testing"
)

func TestGet_CompilesAndCaches(t *testing.T) {
	c := New()

	first := c.Get("user-1", "golang, python+django", "crypto*")
	if first == nil {
		t.Fatal("Get returned nil entry")
	}
	if len(first.Rules.Optional) != 1 || first.Rules.Optional[0] != "golang" {
		t.Errorf("Optional = %v, want [golang]", first.Rules.Optional)
	}
	if len(first.Rules.AndGroups) != 1 {
		t.Errorf("AndGroups = %v, want one group", first.Rules.AndGroups)
	}
	if len(first.Ignore.Wildcards) != 1 || first.Ignore.Wildcards[0] != "crypto*" {
		t.Errorf("Ignore.Wildcards = %v, want [crypto*]", first.Ignore.Wildcards)
	}

	second := c.Get("user-1", "golang, python+django", "crypto*")
	if first != second {
		t.Error("unchanged configuration recompiled, want cached entry reused")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestGet_FingerprintChangeRecompiles(t *testing.T) {
	c := New()

	first := c.Get("user-1", "golang", "")
	second := c.Get("user-1", "rust", "")
	if first == second {
		t.Error("changed keywords returned old entry, want recompile")
	}
	if len(second.Rules.Optional) != 1 || second.Rules.Optional[0] != "rust" {
		t.Errorf("Optional = %v, want [rust]", second.Rules.Optional)
	}
}

func TestGet_FieldBoundaryChangesFingerprint(t *testing.T) {
	c := New()

	// "golang" moves from keywords to ignore; the concatenated bytes are
	// identical, so the separator must keep the fingerprints apart.
	first := c.Get("user-1", "golang", "")
	second := c.Get("user-1", "", "golang")
	if first == second {
		t.Error("text shifted between fields returned old entry, want recompile")
	}
	if !second.Rules.IsEmpty() {
		t.Errorf("Rules = %+v, want empty after shift", second.Rules)
	}
	if len(second.Ignore.Terms) != 1 {
		t.Errorf("Ignore.Terms = %v, want [golang]", second.Ignore.Terms)
	}
}

func TestInvalidate(t *testing.T) {
	c := New()

	first := c.Get("user-1", "golang", "")
	c.Get("user-2", "rust", "")
	c.Invalidate("user-1")

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after invalidating one user", c.Len())
	}

	// Same configuration compiles to a fresh entry after invalidation.
	second := c.Get("user-1", "golang", "")
	if first == second {
		t.Error("Get after Invalidate returned the dropped entry")
	}
}

func TestClear(t *testing.T) {
	c := New()
	for i := 0; i < 5; i++ {
		c.Get(fmt.Sprintf("user-%d", i), "golang", "")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Clear", c.Len())
	}
}

func TestGet_ConcurrentAccess(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", g%5)
			for i := 0; i < 100; i++ {
				entry := c.Get(userID, "golang, [remote/online]", "crypto*")
				if entry == nil || entry.Rules.IsEmpty() {
					t.Error("concurrent Get returned missing or empty entry")
					return
				}
				if i%10 == 0 {
					c.Invalidate(userID)
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() > 5 {
		t.Errorf("Len() = %d, want at most 5 users cached", c.Len())
	}
}
