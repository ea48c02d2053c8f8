package pagination

import (
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		addr   string
		want   int
		wantOK bool
	}{
		{"https://api.example.com/tickets?page=3", 3, true},
		{"https://api.example.com/tickets?per_page=10&page=12", 12, true},
		{"/tickets?per_page=10", 0, false},
		{"/tickets?subpage=4", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, ok := ParsePage(tt.addr)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParsePage(%q) = %d, %v; want %d, %v", tt.addr, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNew(t *testing.T) {
	c := New(-1, 25)
	if c.Page() != 0 {
		t.Errorf("Page() = %d, want 0", c.Page())
	}
	if c.PerPage() != 25 {
		t.Errorf("PerPage() = %d, want 25", c.PerPage())
	}
	if c.Current() != 1 {
		t.Errorf("Current() = %d, want 1", c.Current())
	}
}

func TestUpdate_DerivesPage(t *testing.T) {
	tests := []struct {
		name string
		next string
		prev string
		want int
	}{
		{"from next", "/x?page=3", "", 2},
		{"from previous", "", "/x?page=4", 5},
		{"next wins", "/x?page=3", "/x?page=9", 2},
		{"no page param", "/x?cursor=abc", "", 1},
		{"nothing", "", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(0, 0)
			c.Update(tt.next, tt.prev)
			if got := c.Current(); got != tt.want {
				t.Errorf("Current() = %d, want %d", got, tt.want)
			}
			if c.Page() != 0 {
				t.Errorf("Update must not set an explicit page, got %d", c.Page())
			}
		})
	}
}

func TestUpdate_SyncsExplicitPage(t *testing.T) {
	c := New(1, 0)
	c.Update("/x?page=5", "")
	if c.Page() != 4 {
		t.Errorf("Page() = %d, want 4", c.Page())
	}

	c.Update("/x?cursor=abc", "")
	if c.Page() != 4 {
		t.Errorf("address without page changed Page() to %d", c.Page())
	}
}

func TestAdvance(t *testing.T) {
	t.Run("explicit page increments", func(t *testing.T) {
		c := New(2, 0)
		c.Update("/x?page=3", "/x?page=1")
		if step := c.Advance(); step != StepPage {
			t.Fatalf("Advance() = %v, want page", step)
		}
		if c.Page() != 3 {
			t.Errorf("Page() = %d, want 3", c.Page())
		}
		if c.Pending() != "" {
			t.Errorf("Pending() = %q, want empty", c.Pending())
		}
	})

	t.Run("follows next address once", func(t *testing.T) {
		c := New(0, 0)
		c.Update("https://h/x?page=2", "")
		if step := c.Advance(); step != StepFollow {
			t.Fatalf("Advance() = %v, want follow", step)
		}
		if got := c.TakePending(); got != "https://h/x?page=2" {
			t.Errorf("TakePending() = %q", got)
		}
		if got := c.TakePending(); got != "" {
			t.Errorf("pending address must be consumed, got %q", got)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		c := New(0, 0)
		if step := c.Advance(); step != StepExhausted {
			t.Errorf("Advance() = %v, want exhausted", step)
		}
	})
}

func TestRetreat(t *testing.T) {
	c := New(3, 0)
	if step := c.Retreat(); step != StepPage || c.Page() != 2 {
		t.Errorf("Retreat() = %v page %d, want page 2", step, c.Page())
	}

	c = New(1, 0)
	if step := c.Retreat(); step != StepExhausted {
		t.Errorf("Retreat() on page 1 = %v, want exhausted", step)
	}

	c = New(0, 0)
	c.Update("", "/x?page=1")
	if step := c.Retreat(); step != StepFollow || c.Pending() != "/x?page=1" {
		t.Errorf("Retreat() = %v pending %q", step, c.Pending())
	}
}

func TestFirstAndLastPage(t *testing.T) {
	c := New(0, 0)
	if !c.FirstPage() || !c.LastPage() {
		t.Error("empty cursor should be both first and last page")
	}

	c.Update("/x?page=2", "")
	if !c.FirstPage() || c.LastPage() {
		t.Error("first page with next address")
	}

	c.Advance()
	c.TakePending()
	c.Update("/x?page=2", "/x?page=1")
	if !c.LastPage() {
		t.Error("next address equal to the requested one is the last page")
	}
}

func TestClear(t *testing.T) {
	c := New(4, 20)
	c.Update("/x?page=6", "/x?page=4")
	c.Advance()
	c.Clear()

	if c.Next() != "" || c.Prev() != "" || c.Pending() != "" {
		t.Error("Clear() must drop addresses")
	}
	if c.Page() != 6 || c.PerPage() != 20 {
		t.Errorf("Clear() must keep explicit state, got page %d per_page %d", c.Page(), c.PerPage())
	}
}

func TestStepString(t *testing.T) {
	for step, want := range map[Step]string{StepPage: "page", StepFollow: "follow", StepExhausted: "exhausted"} {
		if step.String() != want {
			t.Errorf("%d.String() = %q, want %q", step, step.String(), want)
		}
	}
}
