package node

import "fmt"

// ModelMask limits a model number to the 24 bits carried on the wire.
const ModelMask = 0x00FFFFFF

// Identity describes a node on the bus.
type Identity struct {
	Address  byte   // Node address, 0x6E0+Address is the response identifier
	DeviceID byte   // Device type
	Model    uint32 // 24-bit model number
	Firmware byte   // Firmware version
}

func (id Identity) String() string {
	return fmt.Sprintf("node %d (device 0x%02x, model 0x%06x, firmware %d)",
		id.Address, id.DeviceID, id.Model, id.Firmware)
}

// Identity returns a copy of the node identity
func (n *Node) Identity() Identity { return n.id }

// Address returns the current node address
func (n *Node) Address() byte { return n.id.Address }

// SetAddress changes the node address without notifying NodeChanged.
func (n *Node) SetAddress(addr byte) { n.id.Address = addr }

func (n *Node) SetDeviceID(id byte) { n.id.DeviceID = id }

// SetModel sets the model number. Bits above 24 are dropped.
func (n *Node) SetModel(model uint32) { n.id.Model = model & ModelMask }

func (n *Node) SetFirmware(v byte) { n.id.Firmware = v }
