// Package websocket pushes live board snapshots to spectators. Each
// connection subscribes to one token and receives the public fire
// response after every fire and avenger fire.
package websocket
