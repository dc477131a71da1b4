package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/breakeven/internal/auth/token"
	interactiondomain "github.com/smallbiznis/breakeven/internal/interaction/domain"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	qrdomain "github.com/smallbiznis/breakeven/internal/qrcode/domain"
	"github.com/smallbiznis/breakeven/internal/ratelimit"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	"github.com/smallbiznis/breakeven/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Hint    string            `json:"hint,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// validationSentinels are reported as 400 with one field entry each.
var validationSentinels = []error{
	ErrInvalidRequest,
	websitedomain.ErrInvalidWebsiteName,
	websitedomain.ErrInvalidBusinessType,
	websitedomain.ErrInvalidColorTheme,
	websitedomain.ErrInvalidContactInfo,
	websitedomain.ErrInvalidArea,
	websitedomain.ErrInvalidSiteName,
	websitedomain.ErrInvalidLogoURL,
	interactiondomain.ErrInvalidName,
	interactiondomain.ErrInvalidEmail,
	interactiondomain.ErrInvalidMessage,
	interactiondomain.ErrInvalidFeedback,
	interactiondomain.ErrInvalidInteractionType,
	interactiondomain.ErrInvalidProduct,
	qrdomain.ErrInvalidOwner,
	qrdomain.ErrInvalidTargetURL,
	qrdomain.ErrInvalidImageType,
	qrdomain.ErrInvalidFormat,
	qrdomain.ErrInvalidColor,
	qrdomain.ErrNoTarget,
	ownerdomain.ErrInvalidEmail,
	ownerdomain.ErrInvalidPassword,
	pagination.ErrInvalidPageToken,
}

var fieldOverrides = map[string]string{
	"invalid_qr_type":          "type",
	"invalid_qr_format":        "format",
	"invalid_qr_color":         "color",
	"invalid_interaction_type": "type",
	"invalid_owner":            "user_id",
	"invalid_feedback":         "feedback",
	"qr_target_missing":        "target_url",
}

var validationMessages = map[string]string{
	"invalid_request":          "invalid request",
	"invalid_website_name":     "website name is required",
	"invalid_business_type":    "business type must be one of food_store, fashion, professional, beauty, technology, general",
	"invalid_color_theme":      "color theme must be a palette name",
	"invalid_contact_info":     "provide at least one of phone, email or address",
	"invalid_area":             "area is required",
	"invalid_site_name":        "site name must contain letters or digits",
	"invalid_target_url":       "an absolute http or https URL is required",
	"qr_target_missing":        "publish a website or set a target URL first",
	"invalid_email":            "a valid email address is required",
	"invalid_message":          "message is required",
	"invalid_feedback":         "feedback is required",
	"invalid_name":             "name is required",
	"invalid_logo_url":         "logo URL must be an absolute http or https URL",
	"invalid_product_id":       "unknown product",
	"invalid_qr_type":          "type must be basic, branded or framed",
	"invalid_qr_format":        "format must be png or jpeg",
	"invalid_qr_color":         "color must be a #RRGGBB hex value",
	"invalid_interaction_type": "type must be view, inquiry or click",
	"invalid_page_token":       "page token is malformed",
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if fields := validationFields(err); len(fields) > 0 {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fields,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, websitedomain.ErrInvalidOwner),
		errors.Is(err, interactiondomain.ErrInvalidOwner),
		errors.Is(err, ownerdomain.ErrInvalidCredentials),
		errors.Is(err, ownerdomain.ErrInactive):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, websitedomain.ErrNameTaken):
		return http.StatusConflict, errorPayload{
			Type:    "name_taken",
			Message: "no free site name could be found",
			Hint:    "retry, or choose a different website name",
		}
	case errors.Is(err, websitedomain.ErrSiteExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a website already exists for this account",
		}
	case errors.Is(err, websitedomain.ErrPublishInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a publish is already in progress",
		}
	case errors.Is(err, ownerdomain.ErrEmailTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, websitedomain.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "upstream_timeout",
			Message: "the hosting provider did not answer in time",
		}
	case errors.Is(err, websitedomain.ErrUpstream),
		errors.Is(err, websitedomain.ErrUpstreamAuth):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Message: "the hosting provider rejected the request",
		}
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests, try again shortly",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// validationFields expands err, including errors.Join trees, into one entry
// per validation sentinel it carries.
func validationFields(err error) []ValidationError {
	var out []ValidationError
	seen := make(map[string]bool)
	for _, sentinel := range validationSentinels {
		if !errors.Is(err, sentinel) {
			continue
		}
		code := sentinel.Error()
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, ValidationError{
			Field:   validationErrorField(code),
			Code:    code,
			Message: validationErrorMessage(code),
		})
	}
	return out
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, websitedomain.ErrNotFound),
		errors.Is(err, websitedomain.ErrSiteInactive),
		errors.Is(err, interactiondomain.ErrSiteNotFound),
		errors.Is(err, interactiondomain.ErrMessageNotFound),
		errors.Is(err, qrdomain.ErrNotFound),
		errors.Is(err, ownerdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if field, ok := fieldOverrides[code]; ok {
		return field
	}
	if code == "invalid_request" {
		return "request"
	}
	return strings.TrimPrefix(code, "invalid_")
}

func validationErrorMessage(code string) string {
	if msg, ok := validationMessages[code]; ok {
		return msg
	}
	return "invalid value"
}

// classifyErrorForLog returns the response type and code logged with each
// failed request.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
