// Package server runs the lightsd core: a subscription loop that keeps
// the state cache in step with device reports, and a command loop that
// turns local socket commands into published deltas.
//
// Both loops are fail-fast. Any error ends the loop, and the supervisor
// in Start treats either loop ending as the end of the server: the other
// loop is cancelled and joined, and the first loop's error is returned.
// Cancelling the context passed to Start is a graceful shutdown and
// yields a nil error.
//
//	srv, err := server.New(server.Options{
//	    Topic:    "zigbee2mqtt/lamp",
//	    Bus:      server.NewMQTTBus(client),
//	    Listener: ln,
//	    Logger:   log,
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
package server
