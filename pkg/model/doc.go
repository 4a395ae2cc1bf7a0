// Package model defines the typed form model consumed by the prompt and
// report surfaces. The builder lives in internal/model and turns the request
// schema of the prediction contract into these types: property titles become
// labels, enums become options (labelled through the `x-survivalform-labels`
// extension), and `x-survivalform-order`, `x-survivalform-input`, `x-survivalform-min` and
// `x-survivalform-placeholder` drive field order, input kind and hints.
package model
