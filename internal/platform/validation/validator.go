package validation

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 駅ID・決済手段ID・パワーバンクIDなど、クライアントから来る不透明なID
var resourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:.]{1,64}$`)

const ResourceIDTag = "resource_id"

// Register adds the project's custom rules to gin's binding validator.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return RegisterOn(v)
}

func RegisterOn(v *validator.Validate) error {
	return v.RegisterValidation(ResourceIDTag, func(fl validator.FieldLevel) bool {
		return resourceIDPattern.MatchString(fl.Field().String())
	})
}
