package helpers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/thedevsaddam/govalidator"
	"golang.org/x/text/currency"
)

func init() {
	govalidator.AddCustomRule("currency_ISO4217", func(field string, rule string, message string, value interface{}) error {
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.String {
			code := value.(string)
			if code == "" {
				return nil
			}
			if _, err := currency.ParseISO(code); err != nil {
				if message != "" {
					return fmt.Errorf(message)
				}
				return fmt.Errorf("The %s field must be an ISO-4217 currency code", field)
			}
		}
		return nil
	})
	govalidator.AddCustomRule("gateway_id", func(field string, rule string, message string, value interface{}) error {
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.String {
			id := value.(string)
			if strings.ContainsAny(id, " \t\r\n<>\"'") {
				if message != "" {
					return fmt.Errorf(message)
				}
				return fmt.Errorf("The %s field must be a gateway identifier", field)
			}
		}
		return nil
	})
}
