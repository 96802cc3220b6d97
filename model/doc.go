// Package model is the HLX data model: zones, groups, equalizer presets,
// sources, favorites, front panel, network and infrared settings.
//
// Every setter compares before it writes and returns a Status. AlreadySet
// is not an error: controllers use it to suppress change events, which
// makes applying the same observed state twice harmless.
//
// The model has no locking. It is owned by one endpoint and mutated only
// from that endpoint's event loop; observers receive copies through events
// or Snapshot.
package model
