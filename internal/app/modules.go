package app

import (
	"github.com/avolkov/starflow/internal/registry"
	"github.com/avolkov/starflow/modules/prepare"
	"github.com/avolkov/starflow/modules/separate_flats"
	"github.com/avolkov/starflow/modules/stack_frames"
	"github.com/avolkov/starflow/modules/subtract_dark"
)

// coreModules is the definitive list of all modules that are compiled into
// the starflow binary.
var coreModules = []registry.Module{
	&prepare.Module{},
	&subtract_dark.Module{},
	&separate_flats.Module{},
	&stack_frames.Module{},
}
