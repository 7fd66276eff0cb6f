package recipe

import "github.com/fossil-lib/xpkg/internal/models"

// Default returns the descriptor of the Fossil XTest library
func Default() models.Descriptor {
	return models.Descriptor{
		Name:        "Xtest",
		Version:     "1.1.2",
		License:     "MPL-2.0",
		URL:         "https://github.com/fossil-lib/fscl-xtest-c",
		Description: "Fossil XTest is your go-to library for robust and comprehensive testing solutions in C.",
		Author:      "Fossil Logic",
		Topics:      []string{"meson", "mesonbuild", "fossillogic"},
		Settings:    []string{"os", "compiler", "build_type", "arch"},
		Options:     models.OptionValues{Shared: []bool{true, false}},
		Defaults:    models.Options{Shared: false},
		Libs:        []string{"fscl-xtest-c"},
		Layout:      DefaultLayout(),
	}
}

// DefaultLayout is the folder layout used when a descriptor leaves it out
func DefaultLayout() models.Layout {
	return models.Layout{
		SourceFolder: "code",
		BuildFolder:  "builddir",
		HeaderFolder: "code/include/fossil",
	}
}
