package search

import (
	"testing"
)

func TestHighlight(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		terms    []string
		maxRunes int
		want     string
	}{
		{"short unchanged", "short", []string{"x"}, 10, "short"},
		{"zero limit unchanged", "x", nil, 0, "x"},
		{"no match truncates from start", "long text here", []string{"zzz"}, 4, "long..."},
		{"match at start", "部署流程说明文档很长", []string{"部署"}, 4, "部署流程..."},
		{"window centered before match", "aaaaaaaaaa部署bbbbbbbbbb", []string{"部署"}, 8, "...aa部署bbbb..."},
		{"window clamped to end", "aaaaaaaaaaaaaaaa部署", []string{"部署"}, 8, "...aaaaaa部署"},
		{"case insensitive", "xxxxxxxxxxDeploy guide", []string{"deploy"}, 8, "...xxDeploy..."},
		{"earliest term wins", "aaaaaaaaaa流程bbbbbbbb部署", []string{"部署", "流程"}, 8, "...aa流程bbbb..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highlight(tt.content, tt.terms, tt.maxRunes); got != tt.want {
				t.Errorf("Highlight() = %q, want %q", got, tt.want)
			}
		})
	}
}
