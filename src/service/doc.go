// Package service implements the HTTP dashboard of a racegate node.
//
// Endpoints:
//
//	GET  /state           latest SystemState snapshot
//	GET  /stats           node and network counters
//	GET  /ws              WebSocket stream of snapshots
//	POST /inputs/gate     set the host gate (state=active|inactive)
//	POST /inputs/button   set the host button (state=pressed|released)
//
// The inputs endpoints only exist on hosts without race hardware, where they
// replace the physical sensors.
package service
