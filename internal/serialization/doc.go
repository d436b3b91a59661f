// Package serialization implements the binary parameter file used to persist
// trained networks.
//
//	Format Structure (version 2):
//	  0x00 [4 bytes: Magic "BORN"]
//	  0x04 [4 bytes: Version (uint32 LE)]
//	  0x08 [4 bytes: Flags (uint32 LE)]
//	  0x0C [4 bytes: Reserved]
//	  0x10 [8 bytes: Header Size (uint64 LE)]
//	  0x18 [8 bytes: Data Size (uint64 LE)]
//	  0x20 [32 bytes: SHA-256 of the data section]
//	  0x40 [Header: JSON metadata]
//	       [Padding to a 64-byte boundary]
//	       [Tensor data: float64 little-endian, in header order]
//
// Example usage:
//
//	err := serialization.WriteFile("net.born", header, tensors)
//
//	header, tensors, err := serialization.ReadFile("net.born", serialization.ReadOptions{})
package serialization
