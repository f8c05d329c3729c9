package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/bildin8/postergram-juice-sub001/internal/apierror"
	"github.com/bildin8/postergram-juice-sub001/internal/middleware"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal validates as a float so tags like min=0, gt=0 and
	// required work on money and quantity fields.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery binds query parameters into req using `form` tags.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:]] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
	return false
}

// parseID reads a UUID path parameter, writing 400 when it is malformed.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses:
//
//	coded validation → 422 + code, coded conflict → 409 + code,
//	ErrNotFound → 404, ErrConflict → 409, ErrValidation → 400,
//	ErrUpstream → 502, anything else → 500 with a generic message.
func respondError(c *gin.Context, err error) {
	var coded *service.CodedError
	if errors.As(err, &coded) {
		status := http.StatusConflict
		if errors.Is(coded.Kind, service.ErrValidation) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, apierror.WithCode(coded.Code, coded.Message))
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrUpstream):
		c.JSON(http.StatusBadGateway, apierror.New("POS API unavailable"))
	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}

// actor returns the display name of the authenticated caller.
func actor(c *gin.Context) string {
	v, ok := c.Get(middleware.ClaimsKey)
	if !ok {
		return ""
	}
	claims, _ := v.(*middleware.JWTClaims)
	if claims == nil {
		return ""
	}
	if claims.Name != "" {
		return claims.Name
	}
	return claims.Subject
}
