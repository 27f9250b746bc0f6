package handlers

import (
	"github.com/marmos91/dittosmb/internal/adapter/smb/smbenc"
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
)

// SMBResponseBase carries the outcome every SMB1 response reports in its
// header: an NT status and the equivalent DOS error pair.
type SMBResponseBase struct {
	Status   types.Status
	DosError types.DosError
}

// GetStatus returns the NT status of the response.
func (r *SMBResponseBase) GetStatus() types.Status {
	return r.Status
}

// GetDosError returns the DOS error of the response.
func (r *SMBResponseBase) GetDosError() types.DosError {
	return r.DosError
}

// IsSuccess reports whether the response carries STATUS_SUCCESS.
func (r *SMBResponseBase) IsSuccess() bool {
	return r.Status.IsSuccess()
}

func successBase() SMBResponseBase {
	return SMBResponseBase{Status: types.StatusSuccess, DosError: types.DosSuccess}
}

// encodeEmpty builds a body with no parameter words and no data bytes.
// SMB1 error responses use the same layout.
func encodeEmpty() ([]byte, error) {
	return smbenc.EncodeBlocks(nil, nil)
}
