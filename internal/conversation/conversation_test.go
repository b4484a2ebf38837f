package conversation

import "testing"

func TestAppendAndLen(t *testing.T) {
	c := New()
	if !c.Empty() {
		t.Fatalf("expected empty conversation")
	}
	c.Append(NewUserMessage("hello"))
	c.Append(NewAssistantMessage("hi there"))
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
	if c.Empty() {
		t.Fatalf("expected non-empty")
	}
}

func TestPopTail(t *testing.T) {
	c := New()
	c.Append(NewUserMessage("a"))
	c.Append(NewAssistantMessage("b"))
	popped := c.PopTail()
	if popped.Content != "b" {
		t.Fatalf("popped = %+v", popped)
	}
	if c.Len() != 1 {
		t.Fatalf("len after pop = %d", c.Len())
	}
}

func TestWireRoleMapping(t *testing.T) {
	cases := []struct {
		kind InfoKind
		want Role
	}{
		{InfoUser, RoleUser},
		{InfoToolResult, RoleUser},
		{InfoToolError, RoleUser},
		{InfoAssistant, RoleAssistant},
		{InfoToolCall, RoleAssistant},
	}
	for _, tc := range cases {
		info := Info{Kind: tc.kind}
		if got := info.WireRole(); got != tc.want {
			t.Errorf("kind %v: WireRole() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestCachePointSetEvictsSmallest(t *testing.T) {
	s := NewCachePointSet()
	s.Add(1)
	s.Add(5)
	s.Add(3)
	s.Add(10) // now 4 entries; smallest (1) must be evicted
	if s.Len() != 3 {
		t.Fatalf("len = %d", s.Len())
	}
	if s.Contains(1) {
		t.Fatalf("expected index 1 to be evicted")
	}
	want := []int{3, 5, 10}
	got := s.Indices()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCachePointSetReset(t *testing.T) {
	s := NewCachePointSet()
	s.Add(1)
	s.Add(2)
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("expected empty after reset, got %d", s.Len())
	}
}

func TestCachePointSetSeedWithLast(t *testing.T) {
	s := NewCachePointSet()
	s.Add(1)
	s.SeedWithLast(5)
	if s.Len() != 1 || !s.Contains(4) {
		t.Fatalf("expected seeded with index 4, got %v", s.Indices())
	}
}

func TestShouldCacheHere(t *testing.T) {
	if ShouldCacheHere(300) {
		t.Fatalf("300 should not trigger (strictly greater than)")
	}
	if !ShouldCacheHere(301) {
		t.Fatalf("301 should trigger")
	}
}

func TestValidateIndex(t *testing.T) {
	c := New()
	c.Append(NewUserMessage("a"))

	if err := c.ValidateIndex(0); err != nil {
		t.Errorf("index 0 should be valid: %v", err)
	}
	if err := c.ValidateIndex(1); err == nil {
		t.Error("index 1 should be out of range")
	}
	if err := c.ValidateIndex(-1); err == nil {
		t.Error("negative index should be out of range")
	}
}
