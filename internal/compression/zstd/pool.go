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
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Pool for reusing encoders to reduce allocations. A failed construction is
// stored as the error so that callers can surface it.
var encoderPool = sync.Pool{
	New: func() any {
		encoder, err := newEncoder()
		if err != nil {
			return err
		}
		return encoder
	},
}

// Pool for reusing decoders to reduce allocations
var decoderPool = sync.Pool{
	New: func() any {
		decoder, err := newDecoder()
		if err != nil {
			return err
		}
		return decoder
	},
}

func getEncoder() (*zstd.Encoder, error) {
	switch v := encoderPool.Get().(type) {
	case *zstd.Encoder:
		return v, nil
	case error:
		return nil, v
	default:
		return newEncoder()
	}
}

func getDecoder() (*zstd.Decoder, error) {
	switch v := decoderPool.Get().(type) {
	case *zstd.Decoder:
		return v, nil
	case error:
		return nil, v
	default:
		return newDecoder()
	}
}
