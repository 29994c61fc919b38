package dto

import "carworkshop/internal/core/apperror"

// FromAppError renders a blocking domain error inside a successful preview response.
// It returns nil for errors that are not application errors.
func FromAppError(err error) *ErrorResponse {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return nil
	}
	return &ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
}
