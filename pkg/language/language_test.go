package language

import "testing"

func TestDetect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "english",
			text:   "Download the installer and start your free trial of the garment simulation software today.",
			want:   "English",
			wantOK: true,
		},
		{
			name:   "japanese",
			text:   "このソフトウェアは衣服のシミュレーションを行うためのツールです。",
			want:   "Japanese",
			wantOK: true,
		},
		{
			name:   "korean",
			text:   "이 소프트웨어는 의류 시뮬레이션을 위한 도구입니다.",
			want:   "Korean",
			wantOK: true,
		},
		{name: "empty", text: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Detect(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Detect() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	d := NewDetector()
	english := "Download the installer and start your free trial of the garment simulation software today."

	if !d.Matches(english, "English") {
		t.Error("English text should match English site")
	}
	if d.Matches(english, "Korean") {
		t.Error("English text should not match Korean site")
	}
	if !d.Matches(english, "Klingon") {
		t.Error("unknown site language should always match")
	}
}

func TestLocale(t *testing.T) {
	tests := map[string]string{
		"English":   "en-us",
		"Espanol":   "es",
		"Taiwanese": "tw",
		"":          "en-us",
	}
	for in, want := range tests {
		if got := Locale(in); got != want {
			t.Errorf("Locale(%q) = %q, want %q", in, got, want)
		}
	}
}
