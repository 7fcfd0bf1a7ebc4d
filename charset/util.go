package charset

import (
	"bytes"
	"fmt"
	"sort"
)

type byteSlice []byte

var _ sort.Interface = (byteSlice)(nil)

func (x byteSlice) Len() int           { return len(x) }
func (x byteSlice) Less(i, j int) bool { return x[i] < x[j] }
func (x byteSlice) Swap(i, j int)      { x[i], x[j] = x[j], x[i] }

type rangeSlice []Range

var _ sort.Interface = (rangeSlice)(nil)

func (x rangeSlice) Len() int           { return len(x) }
func (x rangeSlice) Less(i, j int) bool { return x[i].Lo < x[j].Lo }
func (x rangeSlice) Swap(i, j int)      { x[i], x[j] = x[j], x[i] }

func forEachByte(lo, hi byte, f func(b byte)) {
	for i := uint(lo); i <= uint(hi); i++ {
		f(byte(i))
	}
}

func genericForEach(m Matcher, f func(b byte)) {
	for i := uint(0); i < 256; i++ {
		if m.Match(byte(i)) {
			f(byte(i))
		}
	}
}

func genericString(m Matcher) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	m.ForEach(func(b byte) {
		fmt.Fprintf(&buf, "\\x%02x", b)
	})
	buf.WriteByte(']')
	return buf.String()
}
