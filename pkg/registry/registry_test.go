package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

type fakeTool struct {
	name string
}

func (f *fakeTool) Name() string                 { return f.name }
func (f *fakeTool) Description() string          { return "fake " + f.name }
func (f *fakeTool) Parameters() *schema.Parameters {
	return schema.NewParameters().String("q", "query", true)
}
func (f *fakeTool) NonSkippable() bool { return false }
func (f *fakeTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	return args["q"], nil
}

func TestRegisterAndInvoke(t *testing.T) {
	r := New()
	r.Register(GroupBusinessTrip, &fakeTool{name: "verify_invoice"})

	got, err := r.Invoke(context.Background(), "verify_invoice", map[string]any{"q": "INV-1"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != "INV-1" {
		t.Fatalf("got %v, want INV-1", got)
	}
}

func TestUnknownTool(t *testing.T) {
	r := New()
	_, err := r.Get("nope")
	if !errors.Is(err, domain.ErrToolNotFound) {
		t.Fatalf("want ErrToolNotFound, got %v", err)
	}
	_, err = r.Invoke(context.Background(), "nope", nil)
	if !errors.Is(err, domain.ErrToolNotFound) {
		t.Fatalf("want ErrToolNotFound from Invoke, got %v", err)
	}
}

func TestGroups(t *testing.T) {
	r := New()
	r.Register(GroupBusinessTrip, &fakeTool{name: "book_flight"})
	r.Register(GroupBusinessTrip, &fakeTool{name: "apply_trip"})
	r.Register(GroupDefault, &fakeTool{name: "small_talk"})

	got := r.Group(GroupBusinessTrip)
	if len(got) != 2 || got[0] != "apply_trip" || got[1] != "book_flight" {
		t.Fatalf("Group() = %v", got)
	}
	if len(r.Tools()) != 3 {
		t.Fatalf("Tools() = %d entries, want 3", len(r.Tools()))
	}
}

func TestReRegisterOverwrites(t *testing.T) {
	r := New()
	r.Register(GroupDefault, &fakeTool{name: "echo"})
	r.Register(GroupDefault, &fakeTool{name: "echo"})

	if got := r.Group(GroupDefault); len(got) != 1 {
		t.Fatalf("duplicate group entries: %v", got)
	}
}
