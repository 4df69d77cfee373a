// Package replay reconstructs entity state from the event log (spec
// §4.4): forward replay from scratch, backward replay by reversing
// operations, and snapshot-accelerated replay that starts from the
// nearest prior EntitySnapshot. Schema upgraders rewrite event
// payloads when an event's recorded schema version trails the
// current one.
package replay
