package triple

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// compressThreshold is the encoded-payload size above which delta-triple
// batches are zstd-compressed before being handed to a sync transport.
// Small batches (the common case: one or two entities changed) are not
// worth paying compression setup cost for.
const compressThreshold = 4 << 10 // 4 KiB

// deltaEnvelope is the wire shape for a batch of delta triples (spec
// §6.4 fetch_delta_triples). Compressed is set when Payload holds a
// zstd frame instead of raw msgpack.
type deltaEnvelope struct {
	Compressed bool   `msgpack:"c"`
	Payload    []byte `msgpack:"p"`
}

// EncodeDelta serializes a batch of delta triples for a sync client,
// compressing the payload with zstd once it crosses compressThreshold.
func EncodeDelta(triples []Triple) ([]byte, error) {
	raw, err := msgpack.Marshal(triples)
	if err != nil {
		return nil, fmt.Errorf("triple: encode delta: %w", err)
	}

	env := deltaEnvelope{Payload: raw}
	if len(raw) > compressThreshold {
		compressed, err := zstdCompress(raw)
		if err != nil {
			return nil, fmt.Errorf("triple: compress delta: %w", err)
		}
		env.Compressed = true
		env.Payload = compressed
	}

	out, err := msgpack.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("triple: encode delta envelope: %w", err)
	}
	return out, nil
}

// DecodeDelta reverses EncodeDelta.
func DecodeDelta(data []byte) ([]Triple, error) {
	var env deltaEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("triple: decode delta envelope: %w", err)
	}

	payload := env.Payload
	if env.Compressed {
		decompressed, err := zstdDecompress(payload)
		if err != nil {
			return nil, fmt.Errorf("triple: decompress delta: %w", err)
		}
		payload = decompressed
	}

	var triples []Triple
	if err := msgpack.Unmarshal(payload, &triples); err != nil {
		return nil, fmt.Errorf("triple: decode delta: %w", err)
	}
	return triples, nil
}

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
