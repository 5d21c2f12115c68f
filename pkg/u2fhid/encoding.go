package u2fhid

import (
	"github.com/samber/lo"
)

// encodeResponse fragments payload into one or more 64-byte frames for cid
// carrying command, mirroring request reassembly: first frame up to
// firstFramePayload bytes with the total length, continuations carrying
// continuationFramePayload-byte chunks with sequence 0..127, the trailing
// frame zero-padded.
func encodeResponse(cid ChannelID, command Command, payload []byte) [][]byte {
	reports := make([][]byte, 0, 1+len(payload)/continuationFramePayload)

	first := make([]byte, reportSize)
	copy(first[0:4], cid[:])
	first[4] = byte(command) | byte(initBit)

	n := len(payload)
	firstChunk := lo.Slice(payload, 0, firstFramePayload)
	first[5] = byte(n >> 8)
	first[6] = byte(n)
	copy(first[7:], firstChunk)
	reports = append(reports, first)

	rest := payload[len(firstChunk):]
	if len(rest) == 0 {
		return reports
	}

	chunks := lo.Chunk(rest, continuationFramePayload)
	for i, chunk := range chunks {
		cont := make([]byte, reportSize)
		copy(cont[0:4], cid[:])
		cont[4] = byte(i) & 0x7f
		copy(cont[5:], chunk)
		reports = append(reports, cont)
	}

	return reports
}

func encodeErrorResponse(cid ChannelID, code ErrorCode) [][]byte {
	return encodeResponse(cid, CmdError, []byte{byte(code)})
}
