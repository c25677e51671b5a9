package serve

import (
	"github.com/Snider/Larder/pkg/archive"
)

// Config carries every process-wide setting the server consumes. It is
// populated once from CLI flags at startup and treated as immutable
// afterwards; concurrent requests share it read-only.
type Config struct {
	// Root is the served directory.
	Root string
	// Interface and Port form the listen address.
	Interface string
	Port      string

	// Per-format archive download toggles. All default to off.
	EnableTarGz bool
	EnableTar   bool
	EnableZip   bool

	// DisableIndexing turns off directory listings. Archive downloads
	// disappear with them: the policy answers NotFound for every format.
	DisableIndexing bool
}

// Policy derives the archive access policy from the configuration. Both the
// listing renderer and the download handler go through the value returned
// here, so the link set and the download decisions cannot drift apart.
func (c Config) Policy() archive.Policy {
	return archive.NewPolicy(c.EnableTarGz, c.EnableTar, c.EnableZip, !c.DisableIndexing)
}
