package cache

import (
	"strings"
	"time"
)

// Namespace separates independent cached datasets.
type Namespace string

const (
	// NamespaceBills holds normalized bill records.
	NamespaceBills Namespace = "bills"

	// NamespaceTexts holds full bill text.
	NamespaceTexts Namespace = "bill_texts"

	// NamespaceSummaries holds AI-generated summaries.
	NamespaceSummaries Namespace = "bill_summaries"

	// NamespaceKeywords holds AI-extracted bill keywords.
	NamespaceKeywords Namespace = "bill_keywords"
)

// Default TTLs per namespace.
const (
	DefaultBillTTL    = 24 * time.Hour
	DefaultTextTTL    = 24 * time.Hour
	DefaultSummaryTTL = 7 * 24 * time.Hour
)

// DefaultTTL returns the default TTL for a namespace, or DefaultBillTTL
// for namespaces it does not know.
func (n Namespace) DefaultTTL() time.Duration {
	switch n {
	case NamespaceSummaries, NamespaceKeywords:
		return DefaultSummaryTTL
	case NamespaceTexts:
		return DefaultTextTTL
	default:
		return DefaultBillTTL
	}
}

// Key identifies one cached resource.
type Key struct {
	// Namespace is the dataset (bills, bill_texts, bill_summaries, bill_keywords)
	Namespace Namespace

	// ID is the resource identifier, kept verbatim (e.g. "ocd-bill/6f0e...")
	ID string
}

// String generates the deterministic backend key.
// Format: legis:namespace:id
//
// Example:
//
//	legis:bills:ocd-bill/6f0e1a2b
func (k Key) String() string {
	parts := []string{"legis"}
	if k.Namespace != "" {
		parts = append(parts, string(k.Namespace))
	}
	parts = append(parts, strings.TrimSpace(k.ID))
	return strings.Join(parts, ":")
}
