// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding and LLM capabilities, vector
// store backends, the keyword index, and the evidence store.
package driven
