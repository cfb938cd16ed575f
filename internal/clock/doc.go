// Package clock implements the timezone core of the GPS clock: the zone
// table, the US daylight-saving rule, manual and geographic zone
// resolution, local-time composition and display formatting, all driven by
// a single-owner tick engine.
//
// Nothing in this package touches hardware. Collaborators hand in decoded
// GPS fixes and switch states; the engine hands back display frames and
// diagnostic events.
package clock
