package storage

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     FileKind
	}{
		{"plot.png", FileKindImage},
		{"plot.PNG", FileKindImage},
		{"scan.jpeg", FileKindImage},
		{"scan.jpg", FileKindImage},
		{"vector.svg", FileKindImage},
		{"anim.gif", FileKindImage},
		{"report.pdf", FileKindImage},
		{"data.nc", FileKindData},
		{"values.csv", FileKindData},
		{"archive.tar.gz", FileKindData},
		{"noextension", FileKindData},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Classify(tt.filename); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestProxyURL(t *testing.T) {
	tests := []struct {
		name    string
		apiBase string
		want    string
	}{
		{
			name:    "plain base",
			apiBase: "http://localhost:8080",
			want:    "http://localhost:8080/api/v1/files/proxy/abc123/plot.png",
		},
		{
			name:    "trailing slash stripped",
			apiBase: "https://maps.example.com/",
			want:    "https://maps.example.com/api/v1/files/proxy/abc123/plot.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProxyURL(tt.apiBase, "abc123", "plot.png"); got != tt.want {
				t.Errorf("ProxyURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
