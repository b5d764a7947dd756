package mapreduce

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/dtnitsch/site-indexer/pkg/analytics"
)

func TestMapReduce(t *testing.T) {
	a := &analytics.Analytics{}
	docs := []string{
		"Pattern making with avatar fitting",
		"Avatar sizes and pattern grading",
		"Fabric physics",
	}

	var counts []map[string]int
	for _, d := range docs {
		counts = append(counts, Map(d, a))
	}
	total := Reduce(counts)

	if total["pattern"] != 2 || total["avatar"] != 2 || total["fabric"] != 1 {
		t.Errorf("Reduce() = %v", total)
	}
	if _, ok := total["with"]; ok {
		t.Error("stopword survived map/reduce")
	}
}

func TestTopKeywords(t *testing.T) {
	counts := map[string]int{
		"avatar":  5,
		"pattern": 5,
		"fabric":  2,
		"foo(":    9,
		"key:":    9,
		`"quote`:  9,
	}

	got := TopKeywords(counts, 3)
	want := []string{"avatar:5", "pattern:5", "fabric:2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopKeywords() = %v, want %v", got, want)
	}

	labels := Labels(counts, 2)
	if !reflect.DeepEqual(labels, []string{"avatar", "pattern"}) {
		t.Errorf("Labels() = %v", labels)
	}

	if got := TopKeywords(counts, -1); len(got) != 0 {
		t.Errorf("TopKeywords(-1) = %v, want empty", got)
	}
}

func TestPrintTopKeywords(t *testing.T) {
	var buf bytes.Buffer
	PrintTopKeywords(&buf, map[string]int{"avatar": 3, "fabric": 1}, 5)

	want := "1. avatar: 3\n2. fabric: 1\n"
	if buf.String() != want {
		t.Errorf("PrintTopKeywords() wrote %q, want %q", buf.String(), want)
	}
}
