package models

// ErrorResponse - единый формат ответа об ошибке.
//
//	{"success": false, "error_code": 400, "errors": {"email": "..."}}
type ErrorResponse struct {
	Success   bool              `json:"success"`
	ErrorCode int               `json:"error_code"`
	Errors    map[string]string `json:"errors"`
}

// NewErrorResponse строит ответ с сообщением в поле "detail".
func NewErrorResponse(status int, detail string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		ErrorCode: status,
		Errors:    map[string]string{"detail": detail},
	}
}

// NewFieldErrorResponse строит ответ с ошибками по полям.
func NewFieldErrorResponse(status int, fields map[string]string) ErrorResponse {
	errs := make(map[string]string, len(fields))
	for k, v := range fields {
		errs[k] = v
	}
	return ErrorResponse{Success: false, ErrorCode: status, Errors: errs}
}

// DetailResponse is the body of simple informational answers.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// PaginatedResponse повторяет формат page-number пагинации.
type PaginatedResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
