// Package service exposes the game-facing operations behind the HTTP
// surface: per-token board lifecycle, fire and avenger resolution,
// scoring, and persistence through a SessionStore.
package service
