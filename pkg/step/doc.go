// Package step exposes the public contracts and data model for the STEP
// (ISO 10303-21) splitting pipeline: entity instances, the immutable entity
// table shared by all extraction units, input sources, and the typed errors
// every stage reports. Implementations of the Parser contract live under
// internal/step to keep the scanning machinery hidden from consumers.
package step
