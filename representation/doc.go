// Package representation turns structure views into buffers.
//
// A Representation is built from a parameter table that states, for every
// parameter, whether a change rebuilds all data, rebuilds only when the
// mesh or impostor decision is affected, or patches existing buffers in
// place through UpdateData. Variants embed Base, which owns the
// lifecycle, the parameter diff and picking id reservation, and supply
// CreateData and UpdateData.
//
// Registered variants:
//
//	ball+stick  atoms as spheres, bonds as cylinders
//	spacefill   van der Waals spheres
//	label       one text label per atom
//	distance    cylinder and distance label per atom pair
//	rocket      helix axes as cylinders
//
// Representations have a single owner and are not safe for concurrent
// use. Every mutation requests a render from Env.Requester.
package representation
