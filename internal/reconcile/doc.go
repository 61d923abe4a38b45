// Package reconcile applies model deltas to a widget tree.
//
// An Applier walks a delta tree depth first and performs the minimal widget
// mutations it describes: removed children are disposed, added children are
// inserted at their declared index, replaced children are remapped to their
// replacement and relabelled, and content or state changes trigger structure
// or label refreshes. Expansion, selection and reveal requests are deferred
// through the pass so they run after every result they depend on.
//
// Removals are applied highest current index first and insertions in
// ascending declared index, with every index clamped against the live child
// count, so a delta with several edits at one level can never corrupt sibling
// order. Children are located by element, not by trusting the declared index.
// A delta node whose widget item cannot be found is skipped together with
// its subtree.
package reconcile
