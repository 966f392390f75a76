// Package protocol owns the lockout-chip wire contract.
//
// Ownership boundary:
// - wire: clocked bit channel and nibble codec
// - command codes and fixed wire constants
package protocol
