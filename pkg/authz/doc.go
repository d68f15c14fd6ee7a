// Package authz is the single decision point for access control across
// boards, tasks, and comments.
//
// Every protected operation asks the Checker "may user U perform OP on
// entity E" and receives a tri-state Decision: Allow, NotFound, or
// Forbidden. Centralizing the rules here keeps every endpoint enforcing the
// same policy; handlers never reimplement ownership or membership checks.
//
// Ordering is a hard contract, not an implementation detail: existence is
// resolved before visibility. A missing entity yields NotFound for every
// caller, including the would-be owner. An entity that exists but is not
// visible to the caller yields Forbidden, never NotFound.
//
// The rule evaluation itself (DecideBoard, DecideTask, DecideComment) is
// pure and synchronous over already-resolved facts; only the Checker touches
// storage, and it never caches a decision, so membership changes apply on
// the next request.
package authz
