package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator - структура для валидации данных
type CustomValidator struct {
	validator *validator.Validate
}

// ValidationError представляет ошибку валидации
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors содержит список ошибок валидации
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error реализует интерфейс error
func (ve ValidationErrors) Error() string {
	var errMsgs []string
	for _, err := range ve.Errors {
		errMsgs = append(errMsgs, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(errMsgs, "; ")
}

// FieldRule описывает правило проверки одного поля сущности.
// Messages переопределяет сообщение для конкретного тега (например "min").
type FieldRule struct {
	Field    string
	Value    interface{}
	Tag      string
	Messages map[string]string
	Skip     bool
}

var yearPattern = regexp.MustCompile(`^[0-9]{4}$`)

// NewValidator создает новый экземпляр валидатора
func NewValidator() *CustomValidator {
	v := validator.New()

	// Используем JSON-тег вместо имени поля структуры
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	cv := &CustomValidator{
		validator: v,
	}
	cv.RegisterCustomValidations()

	return cv
}

// RegisterCustomValidations регистрирует кастомные валидации
func (cv *CustomValidator) RegisterCustomValidations() {
	_ = cv.validator.RegisterValidation("year4", validateYear)
}

func validateYear(fl validator.FieldLevel) bool {
	return yearPattern.MatchString(fl.Field().String())
}

// Validate проверяет структуру на соответствие правилам валидации
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var validationErrors ValidationErrors
	for _, fe := range fieldErrs {
		validationErrors.Errors = append(validationErrors.Errors, ValidationError{
			Field:   fe.Field(),
			Message: getErrorMessage(fe),
		})
	}
	return validationErrors
}

// ValidateFields проверяет явный список правил; возвращает ValidationErrors
// со всеми нарушениями или nil
func (cv *CustomValidator) ValidateFields(rules []FieldRule) error {
	var validationErrors ValidationErrors

	for _, rule := range rules {
		if rule.Skip {
			continue
		}

		err := cv.validator.Var(rule.Value, rule.Tag)
		if err == nil {
			continue
		}

		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validate %s: %w", rule.Field, err)
		}

		for _, fe := range fieldErrs {
			message, overridden := rule.Messages[fe.Tag()]
			if !overridden {
				message = getErrorMessage(fe)
			}
			validationErrors.Errors = append(validationErrors.Errors, ValidationError{
				Field:   rule.Field,
				Message: message,
			})
		}
	}

	if len(validationErrors.Errors) > 0 {
		return validationErrors
	}
	return nil
}

// getErrorMessage возвращает понятное сообщение об ошибке на основе тега валидации
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters long", err.Param())
		}
		return fmt.Sprintf("Must be at least %s", err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters long", err.Param())
		}
		return fmt.Sprintf("Must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("Value must be one of: %s", err.Param())
	case "year4":
		return "Must be a four digit year"
	default:
		return fmt.Sprintf("Failed validation for '%s'", err.Tag())
	}
}
