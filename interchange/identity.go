package interchange

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

// ID returns the content identity of the node: a hash of its type and of
// its attributes sorted by name. Metadata is not hashed. Two nodes with the
// same content share an identity, which is what deduplication relies on.
func (n *Node) ID() string {
	if n == nil {
		return ""
	}
	return n.identity(make(map[*Node]bool))
}

func (n *Node) identity(path map[*Node]bool) string {
	if n.id != "" {
		return n.id
	}
	path[n] = true
	defer delete(path, n)

	d := xxhash.New()
	writeString(d, n.typ)
	names := slices.Clone(n.names)
	slices.Sort(names)
	for _, name := range names {
		writeString(d, name)
		digestValue(d, n.attrs[name], path)
	}
	n.id = fmt.Sprintf("%016x", d.Sum64())
	return n.id
}

func digestValue(d *xxhash.Digest, v Value, path map[*Node]bool) {
	var buf [9]byte
	buf[0] = byte(v.kind)
	switch v.kind {
	case KindBool:
		if v.b {
			buf[1] = 1
		}
		_, _ = d.Write(buf[:2])
	case KindInt:
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.i))
		_, _ = d.Write(buf[:])
	case KindFloat:
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.f))
		_, _ = d.Write(buf[:])
	case KindString:
		_, _ = d.Write(buf[:1])
		writeString(d, v.s)
	case KindNode:
		_, _ = d.Write(buf[:1])
		if path[v.n] {
			// a node reachable from itself hashes as a back reference
			writeString(d, "cycle:"+v.n.typ)
			return
		}
		writeString(d, v.n.identity(path))
	case KindList:
		binary.LittleEndian.PutUint64(buf[1:], uint64(len(v.l)))
		_, _ = d.Write(buf[:])
		for _, e := range v.l {
			digestValue(d, e, path)
		}
	default:
		_, _ = d.Write(buf[:1])
	}
}

func writeString(d *xxhash.Digest, s string) {
	var l [8]byte
	binary.LittleEndian.PutUint64(l[:], uint64(len(s)))
	_, _ = d.Write(l[:])
	_, _ = d.WriteString(s)
}
