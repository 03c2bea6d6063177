package content

import "testing"

func TestApplySelector_NoMatchFallsBackToRawHTML(t *testing.T) {
	raw := "<html><body><p>hi</p></body></html>"
	got := ApplySelector(raw, ".does-not-exist")
	if got != raw {
		t.Errorf("expected fallback to raw HTML, got %q", got)
	}
}

func TestApplySelector_ReturnsMatchedOuterHTML(t *testing.T) {
	raw := `<html><body><div id="a">keep</div><div id="b">drop</div></body></html>`
	got := ApplySelector(raw, "#a")
	if got == raw {
		t.Fatal("expected selector match to narrow the output")
	}
	if !contains(got, "keep") || contains(got, "drop") {
		t.Errorf("got %q, want only #a's content", got)
	}
}

func TestExtractReadableText_FallsBackOnShortContent(t *testing.T) {
	raw := "<html><body><p>x</p></body></html>"
	got := ExtractReadableText(raw, "https://example.com")
	if got != raw {
		t.Errorf("expected fallback to raw HTML for too-short content, got %q", got)
	}
}

func TestExtractLinks_ResolvesRelativeHrefs(t *testing.T) {
	raw := `<html><body><a href="/about">About</a><a href="https://other.example/x">X</a></body></html>`
	links := ExtractLinks(raw, "https://example.com/home")
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0].Href != "https://example.com/about" {
		t.Errorf("got %q, want resolved relative href", links[0].Href)
	}
	if links[1].Href != "https://other.example/x" {
		t.Errorf("got %q, want absolute href preserved", links[1].Href)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
