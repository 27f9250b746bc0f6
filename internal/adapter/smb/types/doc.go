// Package types contains SMB1 protocol constants and value types shared
// by the codec and the command handlers.
//
// # Error Reporting
//
// SMB1 servers report failures in one of two encodings, selected by the
// client's FLAGS2_NT_STATUS bit:
//
//	Status   32-bit NT_STATUS ([MS-ERREF] 2.3)
//	DosError 8-bit class + 16-bit code (ERRDOS, ERRSRV, ERRHRD)
//
// Handlers always produce both so the connection layer can pick one.
//
// # Times
//
// Core SMB1 commands carry UTIME values: 32-bit seconds since 1970 in the
// server's local time zone. LocalToAbsolute and AbsoluteToLocal convert
// them using a *time.Location, so daylight saving is applied per instant.
// 0 and 0xFFFFFFFF mean "leave unchanged".
//
// # References
//
//   - [MS-CIFS] Common Internet File System (CIFS) Protocol
//   - [MS-ERREF] Windows Error Codes
//   - [MS-SRVS] Server Service Remote Protocol (share types)
package types
