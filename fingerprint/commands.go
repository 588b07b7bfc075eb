package fingerprint

// Command is an AS608 instruction code.
type Command byte

const (
	CmdGenImg  Command = 0x01 // capture the live finger into the image buffer
	CmdUpImage Command = 0x0A // stream the image buffer to the host
	CmdVfyPwd  Command = 0x13 // verify the device password
)

// ConfirmationCode is the first payload byte of an acknowledge packet.
type ConfirmationCode byte

const (
	ConfirmOK        ConfirmationCode = 0x00
	ConfirmPacketErr ConfirmationCode = 0x01
	ConfirmNoFinger  ConfirmationCode = 0x02
	ConfirmImageFail ConfirmationCode = 0x03
)

// VerifyPasswordFrame is the VfyPwd handshake with the default zero
// password. On the wire: EF01 FFFFFFFF 01 0007 13 00000000 001B.
func VerifyPasswordFrame() Frame {
	return NewCommand(CmdVfyPwd, 0x00, 0x00, 0x00, 0x00)
}
