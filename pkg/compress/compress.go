package compress

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec names the compression scheme a block was written with.
type Codec byte

const (
	CodecNone      Codec = iota // block stored uncompressed, compression didn't help
	CodecLZ4Raw                 // LZ4 block format, no framing
	CodecLZ4Hadoop              // 4-byte BE decompressed size + 4-byte BE compressed size + data
	CodecSnappy                 // read-only
	CodecGzip                   // read-only
	CodecZstd                   // read-only
)

// DefaultWriteCodec is the codec Compress uses unless told otherwise (spec §4.6).
const DefaultWriteCodec = CodecLZ4Raw

// Compress encodes data with codec, falling back to CodecNone when the
// result would not be smaller than the input.
func Compress(data []byte, codec Codec) (Codec, []byte, error) {
	switch codec {
	case CodecLZ4Raw:
		out, err := compressLZ4Raw(data)
		if err != nil {
			return 0, nil, err
		}
		if len(out) >= len(data) {
			return CodecNone, data, nil
		}
		return CodecLZ4Raw, out, nil
	case CodecLZ4Hadoop:
		out, err := compressLZ4Hadoop(data)
		if err != nil {
			return 0, nil, err
		}
		if len(out) >= len(data) {
			return CodecNone, data, nil
		}
		return CodecLZ4Hadoop, out, nil
	case CodecNone:
		return CodecNone, data, nil
	default:
		return 0, nil, fmt.Errorf("compress: codec %d is not writable", codec)
	}
}

// Decompress dispatches on codec and returns the original bytes.
func Decompress(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecLZ4Raw:
		return decompressLZ4Raw(data)
	case CodecLZ4Hadoop:
		return decompressLZ4Hadoop(data)
	case CodecSnappy:
		return snappy.Decode(nil, data)
	case CodecGzip:
		return decompressGzip(data)
	case CodecZstd:
		return decompressZstd(data)
	default:
		return nil, fmt.Errorf("compress: unknown codec %d", codec)
	}
}

func compressLZ4Raw(data []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// incompressible per CompressBlock's own "did not compress" signal
		return data, nil
	}
	return buf[:n], nil
}

func decompressLZ4Raw(data []byte) ([]byte, error) {
	// The caller is expected to track the original size out-of-band
	// (e.g. in Parquet column chunk metadata); we grow a buffer as a
	// fallback for callers that don't.
	buf := make([]byte, len(data)*4+64)
	for {
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if len(buf) > 1<<30 {
			return nil, err
		}
		buf = make([]byte, len(buf)*2)
	}
}

func compressLZ4Hadoop(data []byte) ([]byte, error) {
	block, err := compressLZ4Raw(data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(block))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(data)))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(block)))
	copy(out[8:], block)
	return out, nil
}

func decompressLZ4Hadoop(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("compress: hadoop lz4 frame truncated")
	}
	decompressedSize := binary.BigEndian.Uint32(data[0:4])
	compressedSize := binary.BigEndian.Uint32(data[4:8])
	if uint64(8+compressedSize) > uint64(len(data)) {
		return nil, fmt.Errorf("compress: hadoop lz4 frame size mismatch")
	}
	buf := make([]byte, decompressedSize)
	n, err := lz4.UncompressBlock(data[8:8+compressedSize], buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func decompressGzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func decompressZstd(data []byte) ([]byte, error) {
	d, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.DecodeAll(data, nil)
}
