package payload

import (
	"errors"
	"fmt"
)

// Stage names a step of the record pipeline.
type Stage string

const (
	StageEncode     Stage = "encode"
	StageDecode     Stage = "decode"
	StageCompress   Stage = "compress"
	StageDecompress Stage = "decompress"
	StageEncrypt    Stage = "encrypt"
	StageDecrypt    Stage = "decrypt"
)

var errTooLarge = errors.New("decompressed payload too large")

// PipelineError reports which pipeline stage failed. A decrypt failure
// points at a wrong key or tampering, a decompress failure at corruption and
// a decode failure at a format mismatch.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("payload %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
