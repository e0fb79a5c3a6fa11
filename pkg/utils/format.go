// Copyright 2025 The dver Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"fmt"
	"io"
)

var sizeUnits = []string{"KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with two decimals in the largest unit
// that keeps the value at or above one, e.g. "512 bytes" or "1.50 KB".
func FormatSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d bytes", n)
	}
	v := float64(n) / 1024
	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", v, sizeUnits[unit])
}

// PrintKV writes one aligned "key: value" summary line.
func PrintKV(w io.Writer, key string, value any) {
	_, _ = fmt.Fprintf(w, "  %-16s %v\n", key+":", value)
}
