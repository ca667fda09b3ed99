package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prato/internal/domain/restaurants"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

func (app *application) deletePhotoFromCloudinary(photoURL string) error {
	publicID, err := app.extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}

	return nil
}

// Helper function to extract the public ID from the Cloudinary URL
func (app *application) extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part == "upload" && i+1 < len(pathParts) {
			return strings.Join(pathParts[i+1:], "/"), nil
		}
	}

	return "", errors.New("failed to extract public ID from URL")
}

// uploadRestaurantPhoto uploads a file to Cloudinary under the
// restaurants folder with a collision-free public ID.
func (app *application) uploadRestaurantPhoto(file io.Reader, restaurantID int64) (string, error) {
	publicID := fmt.Sprintf("restaurant_%d_image_%d", restaurantID, time.Now().UnixNano())

	resp, err := app.cld.Upload.Upload(
		context.Background(), // using a background context for external call
		file,
		uploader.UploadParams{
			Folder:    "restaurants",
			PublicID:  publicID,
			Overwrite: api.Bool(false),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

// uploadRestaurantPhotoHandler godoc
//
//	@Summary		Upload a restaurant photo
//	@Tags			restaurants
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			restaurantID	path		int		true	"Restaurant ID"
//	@Param			photo			formData	file	true	"Photo to upload"
//	@Success		200				{object}	map[string]string
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/restaurants/{restaurantID}/photos [post]
func (app *application) uploadRestaurantPhotoHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := app.restaurantIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid restaurant ID: %v", err))
		return
	}

	const maxBytes = 15 * 1024 * 1024 // 15MB
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to get photo from form: %w", err))
		return
	}
	defer file.Close()

	newPhotoURL, err := app.uploadRestaurantPhoto(file, restaurantID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := app.store.Restaurants.AddPhotoURL(ctx, restaurantID, newPhotoURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"photo_url": newPhotoURL})
}

// deleteRestaurantPhotoHandler godoc
//
//	@Summary		Delete a restaurant photo
//	@Description	Admin only. Removes the photo from Cloudinary and from the restaurant's photo list. Pass the URL as ?photo_url={url}.
//	@Tags			restaurants
//	@Param			restaurantID	path		int		true	"Restaurant ID"
//	@Param			photo_url		query		string	true	"Photo URL to delete"
//	@Success		204				{string}	string	"No Content"
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/restaurants/{restaurantID}/photos [delete]
func (app *application) deleteRestaurantPhotoHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := app.restaurantIDFromURL(r)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid restaurant ID: %v", err))
		return
	}

	photoURL := r.URL.Query().Get("photo_url")
	if photoURL == "" {
		app.badRequestResponse(w, r, errors.New("photo_url query parameter is required"))
		return
	}

	if err := app.deletePhotoFromCloudinary(photoURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := app.store.Restaurants.RemovePhotoURL(ctx, restaurantID, photoURL); err != nil {
		switch {
		case errors.Is(err, restaurants.ErrRestaurantNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
