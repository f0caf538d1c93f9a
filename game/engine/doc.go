// Package engine implements the authoritative battleship rules: the
// interned fleet shapes, random non-touching placement, and stateful
// fire/avenger resolution on a 12x12 board.
//
// The engine is pure game logic with no knowledge of HTTP, storage or
// sessions. A Board is mutated synchronously by Fire/FireAvenger and
// serialized to JSON for persistence between requests.
package engine
