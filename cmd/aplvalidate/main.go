package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"wowsim-core/internal/apl"
	"wowsim-core/internal/registry"
	"wowsim-core/internal/specs"
)

func main() {
	var rotationPath, specName string
	flag.StringVar(&rotationPath, "rotation", "configs/rotations/destruction.yaml", "Path to rotation YAML")
	flag.StringVar(&specName, "spec", "warlock_destruction", "Specialization whose abilities and auras the rotation uses")
	flag.Parse()

	cat, err := specs.Builtin()
	if err != nil {
		log.Fatalf("failed to load specializations: %v", err)
	}
	spec, err := cat.Get(specName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	data := spec.Data()
	reg, err := registry.New(data.Abilities, data.Auras, data.Runes)
	if err != nil {
		log.Fatalf("spec %s: %v", specName, err)
	}

	rotationPath = filepath.Clean(rotationPath)
	file, err := apl.LoadRotation(filepath.Dir(rotationPath), filepath.Base(rotationPath))
	if err != nil {
		log.Fatalf("failed to load rotation: %v", err)
	}

	rot, err := apl.Compile(file, reg)
	if err != nil {
		log.Fatalf("rotation invalid: %v", err)
	}

	fmt.Printf("Rotation '%s' validated successfully against %s (%d actions, source: %s)\n",
		file.Name, specName, len(rot.Actions), rotationPath)
}
