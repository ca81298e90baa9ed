// Package peers defines the addresses of the nodes taking part in a race.
//
// A race involves exactly three roles: one coordinator, which holds the
// authoritative time reference and aggregates results, and two gate nodes
// placed at the start and finish lines. Each node is identified by an 8-bit
// NodeAddress. The address is resolved once at startup, either from an
// explicit configuration override or from the node's address selector (a
// dip-switch on the reference hardware), and never changes afterwards.
//
// Address values:
//
//   0   coordinator
//   1   start gate
//   32  finish gate
//
// Any other value is reserved. A node with a reserved address never leaves
// the Init state.
package peers
