// Package bill defines the canonical bill Record and normalizes the
// heterogeneous shapes returned by OpenStates, its search endpoint and the
// cache into it.
//
// Normalization guarantees:
//
//   - Every list field is non-nil, nested Tags included
//   - Missing scalars take defaults (DefaultTitle, DefaultAbstract, Unknown)
//   - Organization fields that arrive as a string, an object with a name or
//     nothing at all resolve through OrgRef
//   - Source order is preserved; History and VoteHistory sort by date
//
// # Basic Usage
//
//	record, err := bill.Normalize(body, bill.FormatOpenStates)
//	if err != nil {
//		return err
//	}
//	fmt.Println(record.Title, bill.TextURL(record))
package bill
