// Package state rebuilds the key-value state from the operation log and keeps it up to date.
//
// The state is a plain map folded from the recovered operations: Set inserts or overwrites a key, Delete removes it,
// and a later operation on the same key wins. Store ties the log writer, the folded state and snapshots together.
package state
