// Package units converts weights between kilograms and pounds and resolves
// bar variants to their weight. Kilograms are the reference unit for every
// calculation in the module.
package units
