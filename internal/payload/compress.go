package payload

import (
	"bytes"
	"io"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/klauspost/compress/s2"
)

// maxDecompressedSize bounds Decompress so a corrupted or hostile stream
// cannot exhaust memory.
const maxDecompressedSize = 16 << 20

// Compress runs b through the S2 stream block compressor.
func Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := s2.NewWriter(&buf, s2.WriterConcurrency(1))
	if _, err := w.Write(b); err != nil {
		_ = w.Close()
		return nil, &PipelineError{Stage: StageCompress, Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &PipelineError{Stage: StageCompress, Err: err}
	}
	return buf.Bytes(), nil
}

// Decompress is the inverse of Compress.
func Decompress(b []byte) ([]byte, error) {
	r := s2.NewReader(bytes.NewReader(b), s2.ReaderMaxBlockSize(s2.MaxBlockSize))
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize+1))
	if err != nil {
		return nil, &PipelineError{Stage: StageDecompress, Err: err}
	}
	if len(out) > maxDecompressedSize {
		return nil, &PipelineError{Stage: StageDecompress, Err: errTooLarge}
	}
	return out, nil
}

// Pack returns the stored plaintext form of p: Compress(Encode(p)).
func Pack(p Payload) ([]byte, error) {
	encoded, err := Encode(p)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(encoded)
	return Compress(encoded)
}

// Unpack is the inverse of Pack.
func Unpack(b []byte) (Payload, error) {
	decompressed, err := Decompress(b)
	if err != nil {
		return Payload{}, err
	}
	defer common.WipeByteArray(decompressed)
	return Decode(decompressed)
}
