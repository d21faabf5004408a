// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package zstd

import (
	"github.com/klauspost/compress/zstd"
)

// Name is the identifier of the Zstandard encoding.
const Name = "zstd"

// maxDecodedSize bounds the memory a single payload may expand to.
const maxDecodedSize = 64 << 20

func newDecoder() (*zstd.Decoder, error) {
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
		zstd.WithDecoderMaxMemory(maxDecodedSize),
	)
}

func newEncoder() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
		zstd.WithLowerEncoderMem(false),
	)
}

// Compress returns src compressed as a single Zstandard frame.
func Compress(src []byte) ([]byte, error) {
	encoder, err := getEncoder()
	if err != nil {
		return nil, err
	}
	defer encoderPool.Put(encoder)
	return encoder.EncodeAll(src, make([]byte, 0, len(src)/2)), nil
}

// Decompress returns the payload of a frame built by Compress.
func Decompress(src []byte) ([]byte, error) {
	decoder, err := getDecoder()
	if err != nil {
		return nil, err
	}
	defer decoderPool.Put(decoder)
	return decoder.DecodeAll(src, nil)
}
