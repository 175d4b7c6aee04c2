// Package mocks provides in-memory stand-ins for the network, injected
// through config.Dependencies so servers, clients and discovery can be
// tested without real sockets.
package mocks
