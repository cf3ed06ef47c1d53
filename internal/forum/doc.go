// Package forum implements the view-state engines behind the forum's
// read surfaces: the filtered, count-annotated post listing
// (ListEngine) and the single-post detail view (DetailController),
// built on the shared comment forest and per-user like index.
//
// The engines also expose optimistic mutation methods (ToggleLike,
// AddComment) that apply locally first and resync from the store on
// failure. Those serve callers that own long-lived view state. The
// HTTP layer deliberately does not use them for writes: it routes
// every mutation through the post's mutator actor so writes to one
// post are serialized, then rebuilds view state from the store. Both
// paths keep the same contract: like and comment counts are always
// recomputed from the store, never trusted from the post row.
package forum
