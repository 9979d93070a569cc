package markdown

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "empty", html: "", want: ""},
		{name: "entities and breaks", html: "<strong>a</strong><br>b &amp; c", want: "a\nb & c"},
		{name: "heading", html: "<h2>Title</h2>Body", want: "Title\nBody"},
		{name: "code", html: `<pre><code class="language-js">let x = 2 &gt; 1;</code></pre>`, want: "let x = 2 > 1;"},
		{name: "ordered", html: "<ol><li>one</li><li>two</li></ol>", want: "1. one\n2. two"},
		{name: "link text", html: `<a href="https://x" target="_blank">site</a>`, want: "site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.html); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.html, got, tt.want)
			}
		})
	}
}

func TestPlainTextOfRenderedList(t *testing.T) {
	got := PlainText(Render("- a\n  - b\n- c"))
	want := "• a\n  • b\n• c"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
