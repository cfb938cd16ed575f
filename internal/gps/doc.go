package gps

// Package gps reads UTC time and position from a GNSS receiver.
//
// Three sources publish the same snapshot shape:
// - "nmea": direct serial, RMC for time/date/position, GGA for fix quality
// - "gpsd": JSON report stream from a local gpsd
// - "sim": synthesized NMEA driven by the wall clock, for benchless work
//
// The serial and sim paths split reading from decoding across a bounded
// sentence queue: the reader never blocks on a slow decoder, it drops the
// sentence and counts the drop. The next second's fix supersedes it.
