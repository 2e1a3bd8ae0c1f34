// Package phybun packs the data objects of a collection into count and size
// bounded bundle archives.
package phybun

const (
	DefaultMaxSubFiles = 512
	DefaultMaxBytes    = int64(4) * 1024 * 1024 * 1024
)

// Member is a data object slated for a bundle.
type Member struct {
	DataID     int
	Path       string
	Size       int64
	SrcPhyPath string
}

// Bundle is one planned archive. Name is set when the bundle is written.
type Bundle struct {
	Members []Member
	Count   int
	Bytes   int64
	Name    string
}

// Limits bound a bundle. Zero fields take the defaults.
type Limits struct {
	MaxSubFiles int
	MaxBytes    int64
}

func (l Limits) withDefaults() Limits {
	if l.MaxSubFiles <= 0 {
		l.MaxSubFiles = DefaultMaxSubFiles
	}

	if l.MaxBytes <= 0 {
		l.MaxBytes = DefaultMaxBytes
	}

	return l
}

// Packer accumulates members into bundles in arrival order.
type Packer struct {
	limits  Limits
	current *Bundle
}

func NewPacker(limits Limits) *Packer {
	return &Packer{limits: limits.withDefaults()}
}

// Add places m in the current bundle. When m does not fit, the current bundle
// is closed and returned and m starts the next one. A member larger than
// MaxBytes still gets a bundle of its own.
func (p *Packer) Add(m Member) *Bundle {
	var full *Bundle
	if p.current != nil && p.current.Count > 0 &&
		(p.current.Count+1 > p.limits.MaxSubFiles || p.current.Bytes+m.Size > p.limits.MaxBytes) {
		full = p.current
		p.current = nil
	}

	if p.current == nil {
		p.current = &Bundle{}
	}

	p.current.Members = append(p.current.Members, m)
	p.current.Count++
	p.current.Bytes += m.Size
	return full
}

// Flush closes and returns the current bundle, or nil when it is empty.
func (p *Packer) Flush() *Bundle {
	b := p.current
	p.current = nil
	if b == nil || b.Count == 0 {
		return nil
	}

	return b
}

// Plan packs members into bundles.
func Plan(members []Member, limits Limits) []*Bundle {
	var bundles []*Bundle
	p := NewPacker(limits)
	for _, m := range members {
		if b := p.Add(m); b != nil {
			bundles = append(bundles, b)
		}
	}

	if b := p.Flush(); b != nil {
		bundles = append(bundles, b)
	}

	return bundles
}
