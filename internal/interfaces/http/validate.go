package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// reportar el nombre JSON del campo, no el de Go
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// bindBody parsea el JSON del cuerpo en out y aplica los tags validate.
// El primer campo rechazado se devuelve como domain.ValidationError.
func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewValidationError(fe.Field(), fe.Value(), describeTag(fe))
		}
		return err
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "uuid":
		return "debe ser un UUID"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "min":
		return "longitud mínima " + fe.Param()
	case "max":
		return "longitud máxima " + fe.Param()
	case "email":
		return "email inválido"
	}
	return "no cumple " + fe.Tag()
}

// pageParams lee limit/offset con los topes usados en todos los listados.
func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
