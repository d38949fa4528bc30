package transcriber

import (
	"encoding/binary"
	"fmt"
	"os"
)

// readPCM returns the data chunk and sample rate of a 16-bit mono PCM WAV file.
func readPCM(path string) ([]byte, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read wav: %w", err)
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%s is not a WAV file", path)
	}

	var (
		rate     int
		channels int
		bits     int
	)
	for pos := 12; pos+8 <= len(raw); {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(raw) {
			size = len(raw) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("short fmt chunk")
			}
			channels = int(binary.LittleEndian.Uint16(raw[body+2:]))
			rate = int(binary.LittleEndian.Uint32(raw[body+4:]))
			bits = int(binary.LittleEndian.Uint16(raw[body+14:]))
		case "data":
			if rate == 0 {
				return nil, 0, fmt.Errorf("data chunk before fmt chunk")
			}
			if channels != 1 || bits != 16 {
				return nil, 0, fmt.Errorf("want 16-bit mono PCM, got %d-bit %d channels", bits, channels)
			}
			return raw[body : body+size], rate, nil
		}
		pos = body + size + size%2
	}
	return nil, 0, fmt.Errorf("%s has no data chunk", path)
}
