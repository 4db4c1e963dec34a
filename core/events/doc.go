// Package events defines the typed events that drive the session state
// machine.
//
// Event kinds are grouped by source-facing namespaces:
//
//   - voice.* — voice activity detection samples classified on the tick
//     cadence.
//   - channel.* — messages delivered by the continuous-mode transport.
//   - playback.* — synthesized-speech playback lifecycle.
//
// All events funnel through the session runtime's queue and are processed in
// arrival order; none of them mutate state on their own.
package events
