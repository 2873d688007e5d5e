package controllers

import (
	"errors"
	"net/http"

	"go-storefront/apperr"
	"go-storefront/utils"
)

// maxUploadBytes caps uploaded images
const maxUploadBytes = 10 << 20

// UploadController handles image uploads
type UploadController struct {
	Storage utils.Storage
}

// NewUploadController creates a new UploadController
func NewUploadController(storage utils.Storage) *UploadController {
	return &UploadController{Storage: storage}
}

// Upload stores the multipart "file" field and returns where it landed (Admin only)
func (uc *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, r, apperr.Wrap(err, apperr.Validation, "No file uploaded"))
		return
	}
	defer file.Close()

	res, err := uc.Storage.Upload(r.Context(), file, header.Filename)
	if errors.Is(err, utils.ErrStorageDisabled) {
		utils.WriteMessage(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}
