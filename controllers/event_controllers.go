package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/utils"
)

type EventController struct {
	DB *gorm.DB
}

func NewEventController(db *gorm.DB) *EventController {
	return &EventController{DB: db}
}

func (ec *EventController) GetAllEvents(c *gin.Context) {
	var events []models.Event
	if err := ec.DB.Order("event_date DESC").Find(&events).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All events", events)
}

func (ec *EventController) GetEventByID(c *gin.Context) {
	var event models.Event
	if err := ec.DB.First(&event, c.Param("event_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("event not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Event detail", event)
}

// GetEventPhotos mengembalikan foto satu event. URL file asli tidak pernah
// ikut terserialisasi ke publik.
func (ec *EventController) GetEventPhotos(c *gin.Context) {
	var photos []models.Photo
	if err := ec.DB.Where("event_id = ?", c.Param("event_id")).Find(&photos).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Event photos", photos)
}

type eventRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	EventDate    string `json:"event_date"` // format 2006-01-02
	Photographer string `json:"photographer"`
	CoverURL     string `json:"cover_url"`
}

func (ec *EventController) CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	event := models.Event{
		Title:        req.Title,
		Slug:         slugify(req.Title),
		Description:  req.Description,
		Location:     req.Location,
		Photographer: req.Photographer,
		CoverURL:     req.CoverURL,
	}
	if req.EventDate != "" {
		if d, err := time.Parse("2006-01-02", req.EventDate); err == nil {
			event.EventDate = &d
		}
	}

	if err := ec.DB.Create(&event).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Event created", event)
}

func (ec *EventController) UpdateEvent(c *gin.Context) {
	var event models.Event
	if err := ec.DB.First(&event, c.Param("event_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("event not found"))
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.Photographer = req.Photographer
	if req.CoverURL != "" {
		event.CoverURL = req.CoverURL
	}
	if req.EventDate != "" {
		if d, err := time.Parse("2006-01-02", req.EventDate); err == nil {
			event.EventDate = &d
		}
	}

	if err := ec.DB.Save(&event).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Event updated", event)
}

func (ec *EventController) DeleteEvent(c *gin.Context) {
	if err := ec.DB.Delete(&models.Event{}, c.Param("event_id")).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Event deleted", gin.H{"event_id": c.Param("event_id")})
}

func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug + "-" + time.Now().Format("20060102150405")
}
