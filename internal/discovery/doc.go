// Package discovery finds and announces CAN-FIX websocket gateways with
// multicast DNS.
//
// A gateway runs the transport hub and registers itself as a "_canfix._tcp"
// service. The TXT record "path" carries the websocket path; other records
// (version, bitrate) are informational.
//
// # Usage Example
//
//	gateways, err := discovery.NewScanner().ScanForGateways(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, gw := range gateways {
//	    fmt.Println(gw.Name, gw.URL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Gateways must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
