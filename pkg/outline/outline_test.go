package outline

import (
	"strings"
	"testing"

	"github.com/dtnitsch/site-indexer/models"
)

const page = `<main>
 <h1>Pricing</h1>
 <p>Pick a <a href="https://clo3d.com/en/plans">plan</a>.</p>
 <ul>
  <li>Individual</li>
  <li>Enterprise</li>
 </ul>
</main>`

func TestText(t *testing.T) {
	got := Text(page)
	for _, want := range []string{"Pricing", "Pick a plan.", "Individual", "Enterprise"} {
		if !strings.Contains(got, want) {
			t.Errorf("Text() = %q, missing %q", got, want)
		}
	}
	if strings.ContainsAny(got, "<>\n") {
		t.Errorf("Text() = %q, still has markup or newlines", got)
	}
}

func TestBuildFormats(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{format: models.OutlineText, want: []string{"Pricing", "Enterprise"}},
		{format: "", want: []string{"Pricing"}},
		{format: models.OutlineMarkdown, want: []string{"# Pricing", "[plan](https://clo3d.com/en/plans)", "Enterprise"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			b, err := New(tt.format)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got, err := b.Build(page, "https://clo3d.com/en/pricing")
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Build() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestNewUnknownFormat(t *testing.T) {
	if _, err := New("pdf"); err == nil {
		t.Error("New(pdf) should fail")
	}
}

func TestGuide(t *testing.T) {
	if got := Guide("steps", "outline"); got != "steps\n\noutline" {
		t.Errorf("Guide() = %q", got)
	}
}
