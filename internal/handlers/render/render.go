package render

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(useJSONTagNames)
}

type Struct any

// ErrorResponse is the generic error body: {"error": "..."}
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldErrors is the per-field error body: {"email": ["..."], ...}
type FieldErrors map[string][]string

func JSON(w http.ResponseWriter, data any) {
	JSONStatus(w, data, http.StatusOK)
}

// Render generic error as {"error": message} with the given status
func Error(w http.ResponseWriter, message string, code int) {
	JSONStatus(w, ErrorResponse{Error: message}, code)
}

// Render field-level validation details as {"field": ["message", ...]}
func Fields(w http.ResponseWriter, fields FieldErrors) {
	JSONStatus(w, fields, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		Error(w, "Malformed JSON body", http.StatusBadRequest)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		Fields(w, fieldErrorMessages(errs))
		return value, err
	}

	return value, nil
}

// Validate checks struct tags without writing anything to the response.
// For handlers that map validation failure to something other than
// field errors.
func Validate(value any) error {
	return validate.Struct(value)
}

// fieldErrorMessages builds user-facing messages based on validation tag
func fieldErrorMessages(errs validator.ValidationErrors) FieldErrors {
	fields := make(FieldErrors, len(errs))

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required."
		case "email":
			message = "Enter a valid email address."
		case "min":
			message = "Value is too short."
		default:
			message = "Invalid value."
		}

		fields[fieldError.Field()] = append(fields[fieldError.Field()], message)
	}

	return fields
}

// JSONStatus sends data as json and enforces status code
func JSONStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
