// Package smbenc provides binary encoding and decoding utilities for the
// SMB1 wire protocol.
//
// The package uses an error-accumulation pattern inspired by bufio.Scanner:
// callers perform multiple read/write operations and check for errors once at
// the end, rather than after every individual operation.
//
//	r := smbenc.NewReader(words)
//	attrs := r.ReadUint16()
//	utime := r.ReadUint32()
//	r.Skip(10)
//	if r.Err() != nil {
//	    return r.Err()
//	}
//
// SMB1 command bodies are a parameter block of 16-bit words followed by a
// data block; ParseBlocks and EncodeBlocks split and build them. Strings in
// the data block are null-terminated, either OEM (code page 437) or
// UTF-16LE aligned to an even offset from the SMB header. ReadString
// transcodes them into a caller-supplied scratch buffer so name length is
// bounded by that buffer.
//
// All integer operations use little-endian byte order ([MS-CIFS] 2.1).
package smbenc
