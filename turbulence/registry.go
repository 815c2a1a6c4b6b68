package turbulence

import (
	"fmt"
	"sort"

	"github.com/z-g-h/dafoam/fields"
	"github.com/z-g-h/dafoam/fvmesh"
)

// Allocator constructs one concrete closure on the given mesh and borrowed
// field set. The field references stay valid for the model's lifetime and
// remain owned by the flow-solver collaborator.
type Allocator func(msh *fvmesh.Mesh, fs *fields.FieldSet, opts Options) (ClosureModel, error)

// allocators holds all available closure models. It is append-only,
// populated from model-file init functions before any New call; lookup never
// depends on registration order.
var allocators = map[string]Allocator{}

// Register adds a model type to the registry. Registering the same tag twice
// is a programmer error.
func Register(modelType string, alloc Allocator) {
	if _, dup := allocators[modelType]; dup {
		panic(fmt.Errorf("turbulence model %q registered twice", modelType))
	}
	allocators[modelType] = alloc
}

// ModelTypes returns the registered tags in sorted order.
func ModelTypes() (names []string) {
	names = make([]string, 0, len(allocators))
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// New constructs the closure selected by modelType.
func New(modelType string, msh *fvmesh.Mesh, fs *fields.FieldSet, opts Options) (m ClosureModel, err error) {
	alloc, ok := allocators[modelType]
	if !ok {
		err = fmt.Errorf("%w: %q, available: %v", ErrUnknownModelType, modelType, ModelTypes())
		return
	}
	m, err = alloc(msh, fs, opts)
	return
}
