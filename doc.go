// Package gflow contains the core components of gflow, an engine for executing
// directed acyclic graphs of data-transformation nodes. This root package defines
// types which are employed during the regular use of the engine, as well as in the
// extension of the engine, and is an excellent overview of gflow's key concepts.
package gflow
