// Package loop drives the attempt/verify/decide iteration cycle.
//
// The controller owns the sequencing: persist state, run one agent
// attempt, detect the completion signal, verify the working tree,
// record the outcome, then act on the stop decision. All judgement is
// delegated: the gate decides, the verification engine judges the
// tree, and a Resolver answers escalations. The controller itself
// only sequences and persists.
package loop
