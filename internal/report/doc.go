// Package report renders houses, rooms and devices as text reports.
//
// Every function works over any slice whose elements implement Item, so the
// same code formats houses, rooms and devices. The entity label is passed
// explicitly as a Kind.
//
// All four list modes (Full, IDs, IDList, NameIndex) reject an empty slice
// with ErrEmptyInput. The functions are pure and safe for concurrent use.
package report
