// Package header provides SMB1 message header parsing and encoding.
//
// # Header Structure
//
// The SMB1 header is exactly 32 bytes:
//
//	Offset  Size  Field             Description
//	------  ----  ----------------  ----------------------------------
//	0       4     Protocol          Magic: 0xFF 'S' 'M' 'B'
//	4       1     Command           SMB_COM_* code
//	5       4     Status            NT_STATUS, or DOS class/reserved/code
//	9       1     Flags             SMB_FLAGS_*
//	10      2     Flags2            SMB_FLAGS2_*
//	12      2     PIDHigh           High 16 bits of the process id
//	14      8     SecurityFeatures  Signature when signing is active
//	22      2     Reserved
//	24      2     TID               Tree identifier
//	26      2     PIDLow            Low 16 bits of the process id
//	28      2     UID               User (session) identifier
//	30      2     MID               Multiplex identifier
//
// Two Flags2 bits change how the rest of the message is read:
// FLAGS2_UNICODE selects UTF-16LE strings and FLAGS2_NT_STATUS selects
// 32-bit status codes over DOS error class/code pairs in replies.
//
// # Byte Order
//
// All multi-byte fields are little-endian. [MS-CIFS] 2.2.3.1
package header
