package mcerr

import "fmt"

// statusTable maps the 16-bit MC protocol end/abnormal code to a short
// description of its meaning. The descriptions are written from general
// knowledge of Mitsubishi's MELSEC communication protocol reference, not
// copied from it. This is not an exhaustive reproduction of every documented code (the
// reference catalog runs into the hundreds); codes not present here still
// resolve through CheckStatus to a generic message carrying the raw code,
// per §7 of the specification ("unknown codes still raise with a generic
// message and the numeric code").
var statusTable = map[uint16]string{
	0x0051: "exceeded the allowable number of occupied stations",
	0x0052: "the data quantity for batch read/write or monitor registration exceeds the allowable range",
	0x0054: "the target station or a relay station does not support the requested unit/function",
	0x0055: "the command or subcommand is not supported by the target station",
	0x0056: "the device number specified is outside the allowable range for the device",
	0x0058: "the request data length does not match the actual request content",
	0x0059: "the data specified in the request is incorrect",
	0x005B: "the CPU module cannot execute the request in its current state",
	0x005C: "the format of the request data is incorrect",
	0x005D: "a file-related error occurred while processing the request",
	0x005F: "processing was interrupted by an error on the target station",
	0x0060: "the request content is incorrect",
	0x0061: "the request data length is incorrect",
	0x0063: "the request cannot be processed because it exceeds the allowable file range",
	0x0065: "a monitor registration error occurred",
	0x0066: "the monitor condition has not been registered",
	0x0070: "the specified device is in a write-disabled area",
	0x0071: "writing is disabled while the CPU module is running",
	0x00C0: "a communication error was detected by the target station",
	0x00C1: "the number of read/write device points does not match the request",
	0x00C2: "the request data length is wrong",
	0x00C4: "the request specifies too many device points to process at once",
	0x00CC: "an illegal device code was specified",
	0x00CE: "the specified device cannot be written to",
	0x00CF: "the request data contains an error",
	0xC050: "the target station could not process the request because of a device memory extension restriction",
	0xC056: "the address or point count exceeds the allowable range for the device",
	0xC058: "the device range specified in the request is invalid",
	0xC059: "the command/subcommand combination is not supported by this target",
	0xC05C: "the request data is not correctly formatted",
	0xC060: "the content of the request is incorrect",
	0xC061: "the request data length does not agree with the actual data",
	0xCEE0: "the CPU module is in a state where this command cannot be executed",
	0xCEE1: "the target station timed out while processing the request",
}

// CheckStatus returns nil for a zero status, or a *ProtocolError carrying
// the reference-manual message (falling back to a generic one for an
// undocumented code) otherwise.
func CheckStatus(status uint16) error {
	if status == 0 {
		return nil
	}
	msg, ok := statusTable[status]
	if !ok {
		msg = fmt.Sprintf("PLC returned an unrecognised status code 0x%04X", status)
	}
	return &ProtocolError{Code: status, Message: msg}
}
