package http

import (
	"booth-queue/common/constant"
	"booth-queue/common/errs"
	"booth-queue/model"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var errorPrinter = message.NewPrinter(language.Korean)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeErrorResponse(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var message string
	var data any

	var httpErr *errs.HttpError
	var validationErr validator.ValidationErrors
	var emailErr *errs.EmailSendError

	switch {
	case errors.As(err, &httpErr):
		message = httpErr.Message
		data = httpErr.Data
		w.WriteHeader(httpErr.Code)
	case errors.As(err, &validationErr):
		message = errorPrinter.Sprintf(constant.NoticeValidationFailed)
		w.WriteHeader(http.StatusBadRequest)

		validationErrors := make(map[string]string)
		for _, fieldErr := range validationErr {
			validationErrors[fieldErr.Field()] = fieldErr.Tag()
		}

		data = validationErrors
	case errors.Is(err, errs.ErrConfirmationRequired):
		message = errorPrinter.Sprintf(constant.NoticeConfirmationRequired)
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, errs.ErrInvalidStatus):
		message = errorPrinter.Sprintf(constant.NoticeInvalidStatus)
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, errs.ErrEmailMissing):
		message = errorPrinter.Sprintf(constant.NoticeEmailMissing)
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, errs.ErrReservationNotFound):
		message = errorPrinter.Sprintf(constant.NoticeReservationNotFound)
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, errs.ErrAuthFailed):
		message = errorPrinter.Sprintf(constant.NoticeUnauthorized)
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, errs.ErrAllocationFailed):
		message = errorPrinter.Sprintf(constant.NoticeAllocationFailed)
		w.WriteHeader(http.StatusServiceUnavailable)
	case errors.As(err, &emailErr):
		message = errorPrinter.Sprintf(constant.NoticeEmailSendFailed)
		if emailErr.Message != "" {
			data = map[string]string{"message": emailErr.Message}
		}
		w.WriteHeader(http.StatusBadGateway)
	case errors.Is(err, errs.ErrEmailSendFailed):
		message = errorPrinter.Sprintf(constant.NoticeEmailSendFailed)
		w.WriteHeader(http.StatusBadGateway)
	case errors.Is(err, errs.ErrUpdateFailed):
		message = errorPrinter.Sprintf(constant.NoticeUpdateFailed)
		w.WriteHeader(http.StatusBadGateway)
	default:
		message = errorPrinter.Sprintf(constant.NoticeInternalError)
		w.WriteHeader(http.StatusInternalServerError)
	}

	errorResponse := model.ErrorResponse{Error: message, Data: data}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &errs.HttpError{Code: http.StatusBadRequest, Message: errorPrinter.Sprintf(constant.NoticeInvalidRequest)}
	}
	return nil
}
