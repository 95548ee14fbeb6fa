package query

import (
	"errors"
	"testing"

	"github.com/hyperjump/askme/internal/models"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer([]string{"研发部", "Sales Team", "Marketing"})

	tests := []struct {
		name       string
		raw        string
		wantScope  string
		wantText   string
		wantErrNil bool
	}{
		{"plain query", "部署流程", "", "部署流程", true},
		{"scope exact", "/研发部 部署流程", "研发部", "部署流程", true},
		{"scope substring", "/研发 部署流程", "研发部", "部署流程", true},
		{"scope case insensitive", "/sales quarterly numbers", "Sales Team", "quarterly numbers", true},
		{"scope unmatched falls back to literal", "/财务部 报销", "财务部", "报销", true},
		{"collapses whitespace", "  deploy    guide  ", "", "deploy guide", true},
		{"lone slash is text", "/ 部署", "", "/ 部署", true},
		{"empty", "", "", "", false},
		{"whitespace", "   \t", "", "", false},
		{"scope only", "/研发部", "", "", false},
		{"scope with trailing spaces", "/研发部    ", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := n.Normalize(tt.raw)
			if !tt.wantErrNil {
				if !errors.Is(err, models.ErrInvalidQuery) {
					t.Fatalf("expected ErrInvalidQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if q.Scope != tt.wantScope {
				t.Errorf("Scope = %q, want %q", q.Scope, tt.wantScope)
			}
			if q.Normalized != tt.wantText {
				t.Errorf("Normalized = %q, want %q", q.Normalized, tt.wantText)
			}
			if len(q.Variants) != 1 || q.Variants[0] != q.Normalized {
				t.Errorf("Variants = %v", q.Variants)
			}
			if q.Raw != tt.raw {
				t.Errorf("Raw = %q", q.Raw)
			}
		})
	}
}

func TestNormalizer_ResolveScopePrefersExactMatch(t *testing.T) {
	n := NewNormalizer([]string{"研发部二组", "研发部"})
	if got := n.ResolveScope("研发部"); got != "研发部" {
		t.Errorf("ResolveScope = %q, want exact match", got)
	}
	if got := n.ResolveScope("二组"); got != "研发部二组" {
		t.Errorf("ResolveScope = %q", got)
	}
}

func TestNormalizer_NoScopes(t *testing.T) {
	n := NewNormalizer(nil)
	q, err := n.Normalize("/ops runbook")
	if err != nil {
		t.Fatal(err)
	}
	if q.Scope != "ops" || q.Normalized != "runbook" {
		t.Errorf("got scope=%q text=%q", q.Scope, q.Normalized)
	}
}
