package node

import (
	"context"
	"fmt"

	"github.com/muurk/canfix/internal/protocol"
	"go.uber.org/zap"
)

// dispatch runs the node specific message state logic for one request.
// Requests for other nodes, unknown codes and short frames are dropped
// silently: every node on the bus sees every request.
func (n *Node) dispatch(f protocol.Frame) error {
	req, err := protocol.ParseNodeRequest(f)
	if err != nil {
		n.logger.Debug("Dropping short node request", zap.Stringer("frame", f))
		return nil
	}

	match := req.Target == n.id.Address
	matchOrBroadcast := match || req.Broadcast()

	switch req.Code {
	case protocol.NSMIdentify:
		if !matchOrBroadcast {
			return nil
		}
		return n.identify(req)

	case protocol.NSMBitrate:
		if !matchOrBroadcast {
			return nil
		}
		return n.bitrate(req)

	case protocol.NSMNodeSet:
		if !matchOrBroadcast {
			return nil
		}
		return n.nodeSet(req, protocol.NewResponse(req, n.id.Address))

	case protocol.NSMDisable:
		if !matchOrBroadcast {
			return nil
		}
		return n.parameterEnable(req)

	case protocol.NSMEnable:
		if !match {
			return nil
		}
		return n.parameterEnable(req)

	case protocol.NSMReport:
		if matchOrBroadcast && n.hooks.Report != nil {
			n.hooks.Report()
		}
		return nil

	case protocol.NSMTwoWay:
		if !match {
			return nil
		}
		return n.twoWay(req)

	case protocol.NSMConfigSet:
		if !match {
			return nil
		}
		return n.configSet(req)

	case protocol.NSMConfigGet:
		if !match {
			return nil
		}
		return n.configGet(req)

	default:
		// NSMStatus is outbound only, firmware transfer is not handled here
		// and the remaining codes carry nothing for this node.
		return nil
	}
}

// respond sends a response frame for req
func (n *Node) respond(req protocol.NodeRequest, resp protocol.Frame) error {
	if err := n.transmit(resp); err != nil {
		return fmt.Errorf("send %s response: %w", req.Code, err)
	}
	n.metrics.ResponseSent(context.Background(), req.Code.String())
	return nil
}

// status sends the pre-seeded response with a status byte and length 3
func (n *Node) status(req protocol.NodeRequest, resp protocol.Frame, st byte) error {
	resp.Data[2] = st
	resp.Length = 3
	return n.respond(req, resp)
}

// identify answers with device type, firmware and the 24-bit model:
//
//	[2]     0x01
//	[3]     device id
//	[4]     firmware version
//	[5-7]   model (little-endian)
func (n *Node) identify(req protocol.NodeRequest) error {
	resp := protocol.NewResponse(req, n.id.Address)
	resp.Data[2] = protocol.IdentifyOK
	resp.Data[3] = n.id.DeviceID
	resp.Data[4] = n.id.Firmware
	resp.Data[5] = byte(n.id.Model)
	resp.Data[6] = byte(n.id.Model >> 8)
	resp.Data[7] = byte(n.id.Model >> 16)
	resp.Length = 8
	return n.respond(req, resp)
}

// bitrate validates the selector in byte 2, reports the new rate and then
// applies the node set procedure to the same request. The single response
// keeps the BITRATE code in byte 0.
func (n *Node) bitrate(req protocol.NodeRequest) error {
	resp := protocol.NewResponse(req, n.id.Address)
	sel := req.Frame.Byte(2)
	kbps, ok := protocol.BitrateForSelector(sel)
	if !ok {
		return n.status(req, resp, protocol.StatusError)
	}
	n.logger.Info("Bitrate change requested", zap.Uint32("kbps", kbps))
	if n.hooks.BitrateChanged != nil {
		n.hooks.BitrateChanged(kbps)
	}
	return n.nodeSet(req, resp)
}

// nodeSet takes byte 2 as the new node address. Zero is rejected. The
// response is sent from the new address.
func (n *Node) nodeSet(req protocol.NodeRequest, resp protocol.Frame) error {
	addr := req.Frame.Byte(2)
	if addr == 0 {
		return n.status(req, resp, protocol.StatusError)
	}

	old := n.id.Address
	n.id.Address = addr
	n.logger.Info("Node address changed", zap.Uint8("from", old), zap.Uint8("to", addr))
	if n.hooks.NodeChanged != nil {
		n.hooks.NodeChanged(addr)
	}
	resp.ID = protocol.NodeID(addr)
	return n.status(req, resp, protocol.StatusOK)
}

// parameterEnable handles DISABLE and ENABLE. The parameter identifier is in
// bytes 2-3 and must lie in the parameter range.
func (n *Node) parameterEnable(req protocol.NodeRequest) error {
	resp := protocol.NewResponse(req, n.id.Address)
	id := req.Frame.Uint16(2)
	if !protocol.IsParameterID(id) {
		return n.status(req, resp, protocol.StatusError)
	}
	st := protocol.StatusError
	if n.hooks.ParameterEnable != nil {
		st = n.hooks.ParameterEnable(id, req.Code == protocol.NSMEnable)
	}
	return n.status(req, resp, st)
}

// twoWay passes byte 2 and the word in bytes 3-4 to the TwoWay hook and
// answers only on success.
func (n *Node) twoWay(req protocol.NodeRequest) error {
	if n.hooks.TwoWay == nil {
		return nil
	}
	if st := n.hooks.TwoWay(req.Frame.Byte(2), req.Frame.Uint16(3)); st != protocol.StatusOK {
		return nil
	}
	return n.status(req, protocol.NewResponse(req, n.id.Address), protocol.StatusOK)
}

// configSet writes bytes 4.. under the key in bytes 2-3.
func (n *Node) configSet(req protocol.NodeRequest) error {
	st := protocol.StatusError
	if n.hooks.ConfigWrite != nil {
		st = n.hooks.ConfigWrite(req.Frame.Uint16(2), req.Frame.Tail(4))
	}
	return n.status(req, protocol.NewResponse(req, n.id.Address), st)
}

// configGet reads the key in bytes 2-3. On success the value follows the
// status byte.
func (n *Node) configGet(req protocol.NodeRequest) error {
	resp := protocol.NewResponse(req, n.id.Address)
	if n.hooks.ConfigRead == nil {
		return n.status(req, resp, protocol.StatusError)
	}
	st, value := n.hooks.ConfigRead(req.Frame.Uint16(2))
	if st != protocol.StatusOK {
		return n.status(req, resp, st)
	}
	resp.Data[2] = st
	resp.Length = uint8(3 + copy(resp.Data[3:], value))
	return n.respond(req, resp)
}
