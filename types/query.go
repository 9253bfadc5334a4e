package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

type ChatParams struct {
	Message string `json:"message" validate:"required"`
}

func (params *ChatParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

type ChatResponse struct {
	Answer    string    `json:"answer"`
	Sources   int       `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

type IngestResponse struct {
	Status      string `json:"status"`
	ChunksCount int    `json:"chunks_count"`
}

type UploadResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

type FileListResponse struct {
	Files []string `json:"files"`
}
