// Package race folds gate beacons into the coordinator's view of the race.
//
// The Aggregator keeps, per gate address, the latest reported gate state and
// last activation time. Updates are last-write-wins per address; beacons
// carrying a wire.Stamp that is not newer than the last accepted one for the
// same address are discarded, which makes duplicated and reordered delivery
// harmless. Race is derived from Gates and recomputed on every coordinator
// tick.
package race
