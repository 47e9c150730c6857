package transport

import (
	"github.com/ds124wfegd/cartoonizer/internal/service"
)

type ConvertHandler struct {
	service service.ConversionService
}

func NewConvertHandler(service service.ConversionService) *ConvertHandler {
	return &ConvertHandler{service: service}
}
