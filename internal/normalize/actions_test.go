package normalize

import (
	"errors"
	"testing"

	"github.com/dtnitsch/site-indexer/pkg/llm"
	"github.com/dtnitsch/site-indexer/pkg/normalizer"
)

const page = `<html><body><nav class="top">menu</nav><main class="x"><div><div><h1>Fabric</h1></div></div><img src="a.png"><p>Soft  cotton</p></main></body></html>`

func TestRender(t *testing.T) {
	n := normalizer.New(normalizer.Rules{BaseURL: "https://clo3d.com"})

	tests := []struct {
		name     string
		selector string
		compact  bool
		want     string
		wantErr  error
	}{
		{
			name:     "pretty",
			selector: "main",
			want:     "<main>\n <h1>\n  Fabric\n </h1>\n <p>\n  Soft  cotton\n </p>\n</main>",
		},
		{
			name:     "compact",
			selector: "main",
			compact:  true,
			want:     "<main><h1>Fabric</h1><p>Soft cotton</p></main>",
		},
		{
			name:     "missing root",
			selector: "article",
			wantErr:  normalizer.ErrNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(n, page, tt.selector, tt.compact)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Render() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Render() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestReduce(t *testing.T) {
	markup := "<html>\n<main>\n <h1>\n  Fabric\n </h1>\n</main>\n</html>"

	r := Reduce("a.html", markup, llm.EstimatingCounter(), 1000)
	if r.Reduced != "<html><main><h1> Fabric </h1></main></html>" {
		t.Errorf("Reduced = %q", r.Reduced)
	}
	if r.PlainText != " Fabric " {
		t.Errorf("PlainText = %q", r.PlainText)
	}
	if r.Tokens == 0 || r.TokensExact || !r.FitsBudget {
		t.Errorf("report = %+v", r)
	}

	if tight := Reduce("a.html", markup, llm.EstimatingCounter(), 1); tight.FitsBudget {
		t.Error("FitsBudget with a one-token budget")
	}
}
