package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	if err := v.RegisterValidation(
		"request_event_type", validateRequestEventType,
	); err != nil {
		return err
	}

	return nil
}

func validateRequestEventType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch RequestEventTypeENUMType(fl.Field().String()) {
	case RequestEventTypeCreated:
		fallthrough
	case RequestEventTypeUpdated:
		fallthrough
	case RequestEventTypeDeleted:
		return true
	}
	return false
}
