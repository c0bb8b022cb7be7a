package api

import (
	"errors"
	"net/http"

	"CryptoCompass/internal/domain/models"
	"CryptoCompass/internal/usecase"
	xhttp "CryptoCompass/pkg/http"
)

// toAppError maps domain errors onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrFetchFailure):
		return xhttp.ServiceUnavailableError("ERR_DATA_UNAVAILABLE", usecase.FetchFailureMessage).WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", usecase.UserMessage(err)).WithError(err)
	case errors.Is(err, models.ErrInvalidPrice):
		return xhttp.UnprocessableError("ERR_INVALID_PRICE", usecase.UserMessage(err)).WithError(err)
	case errors.Is(err, models.ErrInvalidAmount):
		return xhttp.NewAppError("ERR_INVALID_AMOUNT", "amount", usecase.UserMessage(err), http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, models.ErrUnknownAsset):
		return xhttp.BadRequestError("asset", err.Error())
	case errors.Is(err, models.ErrUnknownTemplate):
		return xhttp.BadRequestError("template", err.Error())
	case errors.Is(err, models.ErrUnsupportedWindow):
		return xhttp.BadRequestError("days", err.Error())
	case errors.Is(err, models.ErrUnsupportedListing):
		return xhttp.BadRequestError("limit", err.Error())
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
