// Package pipeline defines the declarative pipeline model: stages with
// explicit dependencies, ordered steps as tagged command variants, and
// write-once artifact declarations. It loads YAML definitions, validates
// them fully at load time (strict field checking, JSON-schema structure,
// struct tags and semantic checks), and computes the dependency-ordered
// execution levels for the engine.
package pipeline
