// Package classify maps sensor metrics to severity tiers and decides which
// threshold crossings raise new alerts. Classification is a pure function of
// the previous values, the new values, and the configured thresholds.
package classify
