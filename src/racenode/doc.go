// Package racenode implements the network side of a racegate node.
//
// A RaceNode owns a Transport. It decodes every frame it receives, keeps the
// freshest coordinator time observation and folds gate beacons into the race
// aggregate. The node's tick loop reads those results and publishes its own
// beacons through it.
package racenode
