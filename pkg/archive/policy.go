package archive

// Decision is the outcome of the archive access policy for one request.
type Decision int

const (
	// Allowed permits the download and the rendering of its listing link.
	Allowed Decision = iota
	// Forbidden means the format is individually disabled while directory
	// indexing is on.
	Forbidden
	// NotFound means directory indexing is off, which hides the archive
	// feature entirely regardless of per-format toggles.
	NotFound
)

// Policy holds the process-wide archive toggles. It is built once at startup
// from configuration and never mutated; Decide is a pure function of the
// request's format, so the listing renderer and the download handler can
// never disagree.
type Policy struct {
	tarGz    bool
	tar      bool
	zip      bool
	indexing bool
}

// NewPolicy builds a Policy from the per-format enable flags and the
// indexing flag.
//
// Example:
//
//	policy := archive.NewPolicy(true, false, false, true)
//	policy.Decide(archive.FormatTarGz) // archive.Allowed
//	policy.Decide(archive.FormatZip)   // archive.Forbidden
func NewPolicy(tarGz, tar, zip, indexing bool) Policy {
	return Policy{tarGz: tarGz, tar: tar, zip: zip, indexing: indexing}
}

// Decide returns the access decision for one format. Disabled indexing wins
// over everything: the feature must disappear rather than leak its existence
// through a different status code.
func (p Policy) Decide(f Format) Decision {
	if !p.indexing {
		return NotFound
	}
	if !p.enabled(f) {
		return Forbidden
	}
	return Allowed
}

func (p Policy) enabled(f Format) bool {
	switch f {
	case FormatTarGz:
		return p.tarGz
	case FormatTar:
		return p.tar
	case FormatZip:
		return p.zip
	}
	return false
}
