package utils

import (
	"errors"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	MsgInvalidEmail = "Please provide a valid email address."
	MsgWeakPassword = "Password must be 8-100 characters long and contain at least one uppercase letter, one lowercase letter, one number and one symbol, with no spaces."
)

var requestValidator = validator.New()

// ValidateEmail checks if the email is well formed.
func ValidateEmail(email string) (bool, string) {
	if strings.TrimSpace(email) == "" {
		return false, MsgInvalidEmail
	}
	if err := requestValidator.Var(email, "required,email"); err != nil {
		return false, MsgInvalidEmail
	}
	// validator 接受 a@b 这种无顶级域名的地址，这里额外要求域名含点
	at := strings.LastIndex(email, "@")
	if at < 0 || !strings.Contains(email[at+1:], ".") {
		return false, MsgInvalidEmail
	}
	return true, ""
}

// ValidatePassword checks if the password meets the requirements.
// Returns true if valid, otherwise false and an error message.
func ValidatePassword(password string) (bool, string) {
	if !isStrongPassword(password) {
		return false, MsgWeakPassword
	}
	return true, ""
}

func isStrongPassword(password string) bool {
	n := len([]rune(password))
	if n < 8 || n > 100 {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// RegisterBindingRules 向 gin 的绑定校验器注册自定义规则（strongpwd）。
func RegisterBindingRules() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
}

// BindingErrorMessage 把绑定/校验错误翻译为面向用户的英文提示。
func BindingErrorMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		first := validationErrors[0]
		field := lowerFirst(first.Field())
		switch first.Tag() {
		case "required":
			return field + " is required."
		case "email":
			return MsgInvalidEmail
		case "strongpwd":
			return MsgWeakPassword
		case "len", "numeric":
			return "Invalid " + field + "."
		case "oneof":
			return "Invalid " + field + "."
		default:
			return "Invalid " + field + "."
		}
	}
	return "Invalid request payload."
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
