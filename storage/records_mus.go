package storage

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/adstore/core"
)

// IDMUS is the MUS serializer for core.ID.
var IDMUS = idMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v core.ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v core.ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	v = core.ID(tmp)
	return
}

func (s idMUS) Size(v core.ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

// NodeMUS is the MUS serializer for Node.
//
// Layout: id, name, kind, memory size, title, spectra (count, then per
// spectrum a length and raw float64 values), properties (count, then
// key/value pairs in key order), children (count, then ids), saved-at in
// Unix microseconds.
var NodeMUS = nodeMUS{}

type nodeMUS struct{}

func (s nodeMUS) Marshal(v Node, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += varint.Uint64.Marshal(uint64(v.Kind), bs[n:])
	n += varint.Uint64.Marshal(v.MemorySize, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])

	n += varint.Uint64.Marshal(uint64(len(v.Spectra)), bs[n:])
	for _, y := range v.Spectra {
		n += varint.Uint64.Marshal(uint64(len(y)), bs[n:])
		for _, f := range y {
			n += raw.Float64.Marshal(f, bs[n:])
		}
	}

	keys := slices.Sorted(maps.Keys(v.Properties))
	n += varint.Uint64.Marshal(uint64(len(keys)), bs[n:])
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v.Properties[k], bs[n:])
	}

	n += varint.Uint64.Marshal(uint64(len(v.Children)), bs[n:])
	for _, id := range v.Children {
		n += IDMUS.Marshal(id, bs[n:])
	}

	n += varint.Int64.Marshal(savedAtMicros(v.SavedAt), bs[n:])
	return n
}

func (s nodeMUS) Unmarshal(bs []byte) (v Node, n int, err error) {
	var m int
	if v.ID, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m

	kind, m, err := varint.Uint64.Unmarshal(bs[n:])
	if err != nil {
		return
	}
	n += m
	v.Kind = NodeKind(kind)

	if v.MemorySize, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m

	nspec, m, err := unmarshalCount(bs[n:], 1)
	if err != nil {
		return
	}
	n += m
	if nspec > 0 {
		v.Spectra = make([][]float64, nspec)
	}
	for i := range nspec {
		var nbins int
		if nbins, m, err = unmarshalCount(bs[n:], 8); err != nil {
			return
		}
		n += m
		y := make([]float64, nbins)
		for j := range y {
			if y[j], m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
				return
			}
			n += m
		}
		v.Spectra[i] = y
	}

	nprops, m, err := unmarshalCount(bs[n:], 2)
	if err != nil {
		return
	}
	n += m
	if nprops > 0 {
		v.Properties = make(map[string]string, nprops)
	}
	for range nprops {
		var key, val string
		if key, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
		if val, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
		v.Properties[key] = val
	}

	nchildren, m, err := unmarshalCount(bs[n:], 1)
	if err != nil {
		return
	}
	n += m
	if nchildren > 0 {
		v.Children = make([]core.ID, nchildren)
	}
	for i := range v.Children {
		if v.Children[i], m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
	}

	micros, m, err := varint.Int64.Unmarshal(bs[n:])
	if err != nil {
		return
	}
	n += m
	if micros != 0 {
		v.SavedAt = time.UnixMicro(micros).UTC()
	}
	return
}

func (s nodeMUS) Size(v Node) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.String.Size(v.Name)
	size += varint.Uint64.Size(uint64(v.Kind))
	size += varint.Uint64.Size(v.MemorySize)
	size += ord.String.Size(v.Title)

	size += varint.Uint64.Size(uint64(len(v.Spectra)))
	for _, y := range v.Spectra {
		size += varint.Uint64.Size(uint64(len(y)))
		for _, f := range y {
			size += raw.Float64.Size(f)
		}
	}

	size += varint.Uint64.Size(uint64(len(v.Properties)))
	for k, val := range v.Properties {
		size += ord.String.Size(k) + ord.String.Size(val)
	}

	size += varint.Uint64.Size(uint64(len(v.Children)))
	for _, id := range v.Children {
		size += IDMUS.Size(id)
	}

	size += varint.Int64.Size(savedAtMicros(v.SavedAt))
	return size
}

// unmarshalCount reads a collection length and rejects lengths the
// remaining bytes cannot hold, given the minimum encoded size of an element.
func unmarshalCount(bs []byte, minElemSize int) (count int, n int, err error) {
	c, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if c > uint64(len(bs)-n)/uint64(minElemSize) {
		return 0, n, fmt.Errorf("%w: %d elements in %d bytes", ErrTruncatedData, c, len(bs)-n)
	}
	return int(c), n, nil
}

func savedAtMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// ManifestMUS is the MUS serializer for Manifest.
var ManifestMUS = manifestMUS{}

type manifestMUS struct{}

func (s manifestMUS) Marshal(v Manifest, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Objects, bs)
	n += varint.Int64.Marshal(savedAtMicros(v.SavedAt), bs[n:])
	return n
}

func (s manifestMUS) Unmarshal(bs []byte) (v Manifest, n int, err error) {
	if v.Objects, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	micros, m, err := varint.Int64.Unmarshal(bs[n:])
	if err != nil {
		return
	}
	n += m
	if micros != 0 {
		v.SavedAt = time.UnixMicro(micros).UTC()
	}
	return
}

func (s manifestMUS) Size(v Manifest) (size int) {
	return varint.Int.Size(v.Objects) + varint.Int64.Size(savedAtMicros(v.SavedAt))
}
