// Package mcp exposes the arena over the Model Context Protocol as a
// thin proxy to the REST API, so agent tooling can play without
// speaking HTTP directly.
package mcp
