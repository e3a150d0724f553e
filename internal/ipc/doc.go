// Package ipc provides the local unix socket transport between the
// lights client and the lightsd daemon.
//
// The protocol is one command per connection: the client connects,
// writes one encoded light.Command, and closes its side. The daemon
// reads until EOF and sends nothing back.
package ipc
