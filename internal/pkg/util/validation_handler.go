package util

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// ErrInvalidParam 请求参数校验失败
var ErrInvalidParam = errors.New("参数错误")

func init() {
	validate = validator.New()
}

func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			firstError := vErrs[0]
			return fmt.Errorf("%w: 字段 [%s] 校验失败，规则 [%s]",
				ErrInvalidParam,
				firstError.Field(),
				firstError.Tag())
		}
		return err
	}
	return nil
}
