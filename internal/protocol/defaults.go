package protocol

// Link defaults shared by host and device.
const (
	DefaultBaudRate = 9600
	ResetTurns      = 100
	// MaxFrameCapacity is the largest receive buffer a device may be
	// configured with; hosts size their reply buffers from it.
	MaxFrameCapacity = 16 << 10
)
