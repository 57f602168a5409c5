// Package server implements the CAN-FIX websocket gateway.
//
// The gateway is an HTTP server that mounts a transport.Hub: every client
// that connects to the hub path becomes a member of one virtual CAN segment.
// Local buses (a SocketCAN interface, a loopback segment) can be bridged in
// so remote nodes and monitors see real traffic.
//
// # Endpoints
//
//   - GET <path> (default /can): websocket upgrade, binary 16-byte frames
//   - GET /status: JSON gateway status (version, members, bridges, uptime)
//
// # TLS
//
// When both a certificate and a key are configured the listener serves TLS
// 1.2 or later and clients connect with wss://.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{Port: 8080})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv.Bridge(ctx, "can0", bus)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
