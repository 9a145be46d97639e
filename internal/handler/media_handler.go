package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"storyhub/internal/identity"
	"storyhub/internal/models"
	"storyhub/internal/service"
)

const uploadField = "image"

// multipart overhead allowed on top of the file itself
const formOverhead = 1 << 20

// readUpload extracts the image part of a multipart request. The returned
// close func releases the part and must be called.
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request) (service.Upload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize+formOverhead)

	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, service.ErrFileTooLarge.Error(), http.StatusRequestEntityTooLarge)
		} else {
			WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		}
		return service.Upload{}, nil, false
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		WriteError(w, "Файл не найден", http.StatusBadRequest)
		return service.Upload{}, nil, false
	}

	return service.Upload{FileName: header.Filename, File: file, Size: header.Size}, func() { file.Close() }, true
}

func (h *Handlers) upload(w http.ResponseWriter, r *http.Request, store func(identity.Identity, service.Upload) (*models.Image, error)) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	upload, closeFile, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer closeFile()

	image, err := store(actor, upload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, image, http.StatusCreated)
}

func (h *Handlers) UploadFeaturedImage(w http.ResponseWriter, r *http.Request) {
	articleID := mux.Vars(r)["id"]
	h.upload(w, r, func(actor identity.Identity, upload service.Upload) (*models.Image, error) {
		return h.MediaService.UploadFeaturedImage(r.Context(), actor, articleID, upload)
	})
}

func (h *Handlers) UploadBlockImage(w http.ResponseWriter, r *http.Request) {
	articleID := mux.Vars(r)["id"]
	h.upload(w, r, func(actor identity.Identity, upload service.Upload) (*models.Image, error) {
		return h.MediaService.UploadBlockImage(r.Context(), actor, articleID, upload)
	})
}

func (h *Handlers) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, func(actor identity.Identity, upload service.Upload) (*models.Image, error) {
		return h.MediaService.UploadAvatar(r.Context(), actor, upload)
	})
}

func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.MediaService.DeleteImage(r.Context(), actor, mux.Vars(r)["imageId"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
