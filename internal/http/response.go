package http

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/adilzhan/auth-core/internal/domain"
)

// Validation details key on the field name the client sent, so the binding
// validator reports json tag names instead of Go struct fields.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// ApiResponse is the success envelope: {success:true, data:...}.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ApiError is the failure envelope with a stable machine code.
type ApiError struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// PaginatedResponse wraps list payloads.
type PaginatedResponse struct {
	Success    bool       `json:"success"`
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, ApiResponse{Success: true, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, ApiResponse{Success: true, Data: data})
}

func paginated(c *gin.Context, data any, page, limit int, total int64) {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Pagination: Pagination{
			Page: page, Limit: limit, Total: total, TotalPages: totalPages,
		},
	})
}

func fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ApiError{Success: false, Error: msg, Code: code})
}

// failErr maps a domain failure onto its stable code. Credential and token
// failures keep uniform messages so responses reveal nothing about which
// check failed.
func failErr(c *gin.Context, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, ApiError{
			Success: false,
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: ve.Details,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, domain.ErrEmailTaken):
		fail(c, http.StatusConflict, "EMAIL_TAKEN", "email already registered")
	case errors.Is(err, domain.ErrEmailUnverified):
		fail(c, http.StatusForbidden, "EMAIL_UNVERIFIED", "email not verified")
	case errors.Is(err, domain.ErrAccountLocked):
		fail(c, http.StatusForbidden, "ACCOUNT_LOCKED", "account locked")
	case errors.Is(err, domain.ErrProviderLinked):
		fail(c, http.StatusConflict, "PROVIDER_ALREADY_LINKED", "provider already linked to this account")
	case errors.Is(err, domain.ErrInvalidState):
		fail(c, http.StatusBadRequest, "INVALID_STATE", "invalid or expired state")
	case errors.Is(err, domain.ErrTokenExpired):
		fail(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
	case errors.Is(err, domain.ErrTokenRevoked):
		fail(c, http.StatusUnauthorized, "TOKEN_REVOKED", "token revoked")
	case errors.Is(err, domain.ErrWrongTokenType):
		fail(c, http.StatusUnauthorized, "WRONG_TOKEN_TYPE", "wrong token type")
	case errors.Is(err, domain.ErrTokenMalformed):
		fail(c, http.StatusUnauthorized, "TOKEN_MALFORMED", "invalid token")
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, domain.ErrStoreUnavailable):
		fail(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "temporarily unavailable")
	default:
		fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// bindJSON decodes and validates a request body, converting validator
// failures into the field→messages details map.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string][]string, len(verrs))
			for _, fe := range verrs {
				f := fe.Field()
				details[f] = append(details[f], validationMessage(fe))
			}
			c.JSON(http.StatusBadRequest, ApiError{
				Success: false,
				Error:   "validation failed",
				Code:    "VALIDATION_ERROR",
				Details: details,
			})
			return false
		}
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
