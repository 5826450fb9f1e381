// Package core defines the shared data model of the AgentHub coordination
// engine: capability descriptors, tasks, plans, invocation outcomes,
// synthesized responses and sessions, plus the uniform adapter contract and
// the error taxonomy used across registry, router, executor and synthesizer.
//
// The package is dependency-light by design; every other package in the
// module imports core, never the other way around.
package core
