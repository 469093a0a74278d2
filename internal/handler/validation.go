package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"novel-stella/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorsOnce sync.Once

// registerValidators добавляет теги strongpassword и nickname в валидатор gin.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return service.ValidatePassword(fl.Field().String()) == ""
		})
		_ = v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
			n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
			return n >= service.NicknameMinLength && n <= service.NicknameMaxLength
		})
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "strongpassword":
		return service.ValidatePassword(fe.Value().(string))
	case "nickname":
		return "Nickname must be between 2 and 30 characters."
	case "min", "max", "gte", "lte":
		return "Ensure this value is within the allowed range."
	default:
		return "Invalid value."
	}
}

// bindJSON разбирает тело запроса; при ошибке пишет ответ и возвращает false.
// Пустое тело допустимо, обязательность проверяют теги.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			if _, exists := fields[fe.Field()]; !exists {
				fields[fe.Field()] = fieldMessage(fe)
			}
		}
		abortWithFields(c, http.StatusBadRequest, fields)
		return false
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		abortWithFields(c, http.StatusBadRequest, map[string]string{typeErr.Field: "Invalid value."})
		return false
	}
	abortWithDetail(c, http.StatusBadRequest, "JSON parse error - "+err.Error())
	return false
}
