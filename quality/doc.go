// Package quality interprets Kepler per-cadence quality flags and filters
// light curves by configurable strictness levels.
//
// Each cadence carries a bit set describing spacecraft and detector events
// recorded while it was taken. A Bitmask selects which of those events
// disqualify a cadence; the package ships the three composite levels used
// by the mission pipeline (default, hard, hardest) along with the raw
// flags, and parses either form from configuration strings. Strictness is
// monotone: every cadence the default level removes is also removed by
// hard, and every hard removal by hardest.
package quality
