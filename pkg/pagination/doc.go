// Package pagination tracks the page position of a collection.
//
// A Cursor holds two kinds of state:
//   - explicit state set by the caller: page number and page size
//   - response-derived state: the next/previous page addresses returned by
//     the server, the page number derived from them and a one-shot pending
//     address to request instead of the collection path
//
// Example usage:
//
//	cur := pagination.New(0, 50)
//	cur.Update(nextPage, previousPage)
//	switch cur.Advance() {
//	case pagination.StepPage:
//		// refetch with cur.Page()
//	case pagination.StepFollow:
//		// request cur.TakePending()
//	case pagination.StepExhausted:
//		// no further page
//	}
//
// Pages are walked sequentially; there is no prefetching.
package pagination
