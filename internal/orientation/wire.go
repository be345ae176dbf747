package orientation

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Serial telemetry frame: 'R', then roll, pitch and yaw as
// little-endian IEEE-754 float32 separated by tabs, newline terminated.
//
//	offset 0   'R'
//	offset 1   roll (4 bytes)
//	offset 5   '\t'
//	offset 6   pitch (4 bytes)
//	offset 10  '\t'
//	offset 11  yaw (4 bytes)
//	offset 15  '\n'
const FrameSize = 16

// EncodeFrame packs a pose into the 16-byte serial telemetry frame.
func EncodeFrame(p Pose) []byte {
	b := make([]byte, FrameSize)
	b[0] = 'R'
	binary.LittleEndian.PutUint32(b[1:5], math.Float32bits(float32(p.Roll)))
	b[5] = '\t'
	binary.LittleEndian.PutUint32(b[6:10], math.Float32bits(float32(p.Pitch)))
	b[10] = '\t'
	binary.LittleEndian.PutUint32(b[11:15], math.Float32bits(float32(p.Yaw)))
	b[15] = '\n'
	return b
}

// DecodeFrame unpacks a serial telemetry frame produced by EncodeFrame.
func DecodeFrame(b []byte) (Pose, error) {
	if len(b) != FrameSize {
		return Pose{}, fmt.Errorf("frame length %d, want %d", len(b), FrameSize)
	}
	if b[0] != 'R' || b[5] != '\t' || b[10] != '\t' || b[15] != '\n' {
		return Pose{}, fmt.Errorf("malformed frame %q", b)
	}
	return Pose{
		Roll:  float64(math.Float32frombits(binary.LittleEndian.Uint32(b[1:5]))),
		Pitch: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[6:10]))),
		Yaw:   float64(math.Float32frombits(binary.LittleEndian.Uint32(b[11:15]))),
	}, nil
}
