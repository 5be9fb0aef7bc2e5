// Copyright 2025 The File-Group Reader Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import "github.com/holiman/uint256"

// OrderingNumeric wraps a fixed-width unsigned integer so that numeric
// precombine values (timestamps, sequence numbers, monetary amounts) compare
// correctly regardless of source width (int32/int64/float bit patterns are
// normalized into this by the caller before comparison).
type OrderingNumeric struct {
	v uint256.Int
}

func NewOrderingNumericU64(v uint64) *OrderingNumeric {
	var n OrderingNumeric
	n.v.SetUint64(v)
	return &n
}

func NewOrderingNumericFromBigEndian(b []byte) *OrderingNumeric {
	var n OrderingNumeric
	n.v.SetBytes(b)
	return &n
}

func (n *OrderingNumeric) Compare(o *OrderingNumeric) int {
	if n == nil && o == nil {
		return 0
	}
	if n == nil {
		return -1
	}
	if o == nil {
		return 1
	}
	return n.v.Cmp(&o.v)
}

func (n *OrderingNumeric) Uint64() uint64 { return n.v.Uint64() }
