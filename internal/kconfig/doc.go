// Package kconfig is a compact Kconfig schema engine.
//
// It parses a practical subset of the Kconfig declaration language into an
// ordered node tree, evaluates symbol values with tristate logic, merges
// settings files in two modes and serialises the resolved tree as a settings
// file or a C header. The engine never reads the process environment: macro
// expansion and the srctree root come from Options.Env.
package kconfig
