package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/utils"
)

type PhotoController struct {
	DB *gorm.DB
}

func NewPhotoController(db *gorm.DB) *PhotoController {
	return &PhotoController{DB: db}
}

func (pc *PhotoController) GetPhotoByID(c *gin.Context) {
	var photo models.Photo
	if err := pc.DB.First(&photo, c.Param("photo_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("photo not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Photo detail", photo)
}

func (pc *PhotoController) CreatePhoto(c *gin.Context) {
	type request struct {
		EventID      uint    `json:"event_id" binding:"required"`
		Title        string  `json:"title" binding:"required"`
		Price        float64 `json:"price" binding:"required,min=1"`
		WatermarkURL string  `json:"watermark_url"`
		DisplayURL   string  `json:"display_url"`
		OriginalURL  string  `json:"original_url"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var event models.Event
	if err := pc.DB.First(&event, req.EventID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("event not found"))
		return
	}

	photo := models.Photo{
		EventID:      req.EventID,
		Title:        req.Title,
		Price:        req.Price,
		WatermarkURL: req.WatermarkURL,
		DisplayURL:   req.DisplayURL,
		OriginalURL:  req.OriginalURL,
	}
	if err := pc.DB.Create(&photo).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Photo created", photo)
}

// UpdatePhoto mengubah metadata foto. Flag sold sengaja tidak bisa diubah
// dari sini; itu milik proses rekonsiliasi dan verifikasi manual.
func (pc *PhotoController) UpdatePhoto(c *gin.Context) {
	var photo models.Photo
	if err := pc.DB.First(&photo, c.Param("photo_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("photo not found"))
		return
	}

	type request struct {
		Title string  `json:"title"`
		Price float64 `json:"price"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Title != "" {
		photo.Title = req.Title
	}
	if req.Price > 0 {
		photo.Price = req.Price
	}
	if err := pc.DB.Save(&photo).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Photo updated", photo)
}

func (pc *PhotoController) DeletePhoto(c *gin.Context) {
	if err := pc.DB.Delete(&models.Photo{}, c.Param("photo_id")).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Photo deleted", gin.H{"photo_id": c.Param("photo_id")})
}

// UploadPhotoFile menerima file asli dari fotografer dan menyimpannya di
// direktori uploads. Resize/watermark berjalan di pipeline terpisah.
func (pc *PhotoController) UploadPhotoFile(c *gin.Context) {
	var photo models.Photo
	if err := pc.DB.First(&photo, c.Param("photo_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("photo not found"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("file is required"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("only jpg/jpeg/png files are allowed"))
		return
	}

	filename := fmt.Sprintf("photo_%d_%d%s", photo.ID, time.Now().Unix(), ext)
	dst := filepath.Join("public", "uploads", "photos", filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	photo.OriginalURL = "/uploads/photos/" + filename
	if err := pc.DB.Save(&photo).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Photo uploaded", gin.H{
		"photo_id": photo.ID,
		"url":      photo.OriginalURL,
	})
}
