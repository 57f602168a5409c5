// Package node runs the CAN-FIX node protocol.
//
// A Node owns its identity (address, device type, model, firmware) and a set
// of optional host hooks. Frames enter through Process, which classifies
// them, delivers alarms and parameters to hooks and answers node specific
// messages addressed to this node. Responses and outbound parameters leave
// through a Sink.
//
// # Concurrency
//
// Node is not safe for concurrent use and takes no locks. Hooks run on the
// caller's goroutine and may call back into the node (for example SendStatus
// from a Report hook). Hosts with more than one goroutine touching a node
// should go through a Runner, which owns the node on a single dispatch loop.
//
// # Usage Example
//
//	bus := transport.NewLoopbackBus().Open()
//	n := node.New(0x42, node.BusSink{Bus: bus},
//	    node.WithModel(0x0A0B0C),
//	    node.WithHooks(node.Hooks{
//	        ParameterQuery: func(id uint16) bool { return id != 0x183 },
//	    }),
//	)
//	r := node.NewRunner(n, bus)
//	go r.Run(ctx)
//	err := r.Do(ctx, func(n *node.Node) error {
//	    return n.SendParameter(p)
//	})
package node
