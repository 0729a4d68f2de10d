package cache

import (
	"testing"
	"time"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "bill metadata",
			key:  Key{Namespace: NamespaceBills, ID: "bill-42"},
			want: "legis:bills:bill-42",
		},
		{
			name: "openstates id keeps slashes",
			key:  Key{Namespace: NamespaceTexts, ID: "ocd-bill/6f0e1a2b-0000"},
			want: "legis:bill_texts:ocd-bill/6f0e1a2b-0000",
		},
		{
			name: "surrounding whitespace trimmed",
			key:  Key{Namespace: NamespaceSummaries, ID: "  hb-1 "},
			want: "legis:bill_summaries:hb-1",
		},
		{
			name: "no namespace",
			key:  Key{ID: "x"},
			want: "legis:x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	key := Key{Namespace: NamespaceBills, ID: "ocd-bill/123"}
	first := key.String()
	for i := 0; i < 10; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q != %q", got, first)
		}
	}
}

func TestVoteKey(t *testing.T) {
	if got, want := voteKey("ocd-bill/1", "v1"), "legis:votes:10:ocd-bill/1:v1"; got != want {
		t.Errorf("voteKey = %q, want %q", got, want)
	}
	if voteKey("a:b", "c") == voteKey("a", "b:c") {
		t.Error("vote keys with shifted separators must differ")
	}
}

func TestNamespace_DefaultTTL(t *testing.T) {
	tests := []struct {
		ns   Namespace
		want time.Duration
	}{
		{NamespaceBills, 24 * time.Hour},
		{NamespaceTexts, 24 * time.Hour},
		{NamespaceSummaries, 7 * 24 * time.Hour},
		{NamespaceKeywords, 7 * 24 * time.Hour},
		{"other", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.ns), func(t *testing.T) {
			if got := tt.ns.DefaultTTL(); got != tt.want {
				t.Errorf("DefaultTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}
