// Package solver is the probabilistic bot. It keeps a monotone belief
// over unknown cells, propagates deterministic constraints after every
// shot, enumerates or samples the fleet configurations consistent with
// the observations to build a heat-map, and picks the next shot (and
// avenger) from it.
package solver
