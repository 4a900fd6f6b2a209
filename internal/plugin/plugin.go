// Package plugin resolves the filter stage for a run: a built-in Go stage
// selected by name, or a JavaScript file executed with otto.
package plugin

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vcfdistil/internal/pipeline"
)

// ErrUnknownPlugin is returned by Load for names that are neither a
// built-in nor a readable file.
var ErrUnknownPlugin = errors.New("unknown filter plugin")

// Factory builds a fresh stage for each input, so plugin state never
// carries over from one file to the next.
type Factory interface {
	Name() string
	NewStage() (pipeline.Stage, error)
}

// Builtin is a filter stage compiled into the binary.
type Builtin struct {
	name        string
	description string
	newStage    func() pipeline.Stage
}

// Name returns the name used to select the built-in.
func (b *Builtin) Name() string { return b.name }

// Description returns a one-line summary.
func (b *Builtin) Description() string { return b.description }

// NewStage returns a new instance of the stage.
func (b *Builtin) NewStage() (pipeline.Stage, error) {
	return b.newStage(), nil
}

// Default is the name of the pass-through stage.
const Default = "passthrough"

var builtins = map[string]*Builtin{}

func register(b *Builtin) {
	builtins[b.name] = b
}

func init() {
	register(&Builtin{
		name:        Default,
		description: "write every record as CHROM..FILTER followed by the genotype columns",
		newStage:    func() pipeline.Stage { return pipeline.Stage{} },
	})
	register(&Builtin{
		name:        "vep-csq",
		description: "rare, non-LOW impact variants with few carriers, from the VEP CSQ entry marked PICK=1",
		newStage:    func() pipeline.Stage { return pipeline.FromValue(NewVEPCSQFilter()) },
	})
}

// Builtins returns the built-in stages sorted by name.
func Builtins() []*Builtin {
	list := make([]*Builtin, 0, len(builtins))
	for _, b := range builtins {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	return list
}

// Load resolves name to a Factory. An empty name selects the pass-through
// stage; a name ending in .js, or naming an existing file, is loaded as a
// script; anything else must be a built-in name.
func Load(name string, logger *zap.Logger) (Factory, error) {
	if name == "" {
		name = Default
	}
	if strings.HasSuffix(name, ".js") {
		return LoadScript(name, logger)
	}
	if b, ok := builtins[name]; ok {
		return b, nil
	}
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return LoadScript(name, logger)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
}
