// Package scoring computes a property's total_score and tier from its
// accumulated signals: each signal contributes its configured base weight
// times a recency multiplier that falls linearly from 1+decay_boost for a
// new signal to 1.0 at the edge of the recency window (older signals are
// dropped), scaled by an optional status multiplier, plus a flat bonus once
// enough distinct sources have reported on the same property.
package scoring
