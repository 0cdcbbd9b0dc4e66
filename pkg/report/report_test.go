package report

import (
	"testing"
)

func TestRenderDefaultTemplate(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := renderer.Render(Report{
		Source: "gearbox",
		Kind:   "assembly",
		Entries: []Entry{
			{Name: "NUT", Count: 1},
			{Name: "BOLT", Count: 2},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := "BOLT;2\nNUT;1\n"
	if string(out) != want {
		t.Fatalf("report mismatch:\nwant %q\ngot  %q", want, out)
	}
}

func TestRenderCustomTemplate(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer(WithTemplate(
		"{{ source }} ({{ kind }})\n{% for entry in entries %}- {{ entry.Name }} x{{ entry.Count }}\n{% endfor %}"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := renderer.Render(Report{
		Source:  "casting",
		Kind:    "multi_volume_part",
		Entries: []Entry{{Name: "casting_1", Count: 3}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := "casting (multi_volume_part)\n- casting_1 x3\n"
	if string(out) != want {
		t.Fatalf("report mismatch:\nwant %q\ngot  %q", want, out)
	}
}

func TestRenderEmptyEntries(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(Report{Source: "empty", Kind: "assembly"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty report, got %q", out)
	}
}

func TestNewRendererRejectsInvalidTemplate(t *testing.T) {
	t.Parallel()

	if _, err := NewRenderer(WithTemplate("{% for %}")); err == nil {
		t.Fatalf("expected template parse error")
	}
	if _, err := NewRenderer(WithTemplate("")); err == nil {
		t.Fatalf("expected empty template rejection")
	}
}
