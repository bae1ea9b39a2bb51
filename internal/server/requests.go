package server

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/raphaelgruber/logoforge/internal/models"
)

var registerOnce sync.Once

// registerValidators adds the domain enum checks to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("generation_type", func(fl validator.FieldLevel) bool {
			return models.GenerationType(fl.Field().String()).Valid()
		})
	})
}

type createProjectRequest struct {
	Name         string              `json:"name" binding:"max=200"`
	CompanyBrief models.CompanyBrief `json:"company_brief"`
}

type updateProjectRequest struct {
	Name          *string              `json:"name" binding:"omitempty,min=1,max=200"`
	CompanyBrief  *models.CompanyBrief `json:"company_brief"`
	PhaseProgress *int                 `json:"phase_progress" binding:"omitempty,min=0,max=100"`
}

type extractBriefRequest struct {
	Text string `json:"text" binding:"required"`
}

type extractBriefResponse struct {
	CompanyBrief models.CompanyBrief `json:"company_brief"`
	Gaps         []string            `json:"gaps"`
}

type proposeDirectionsRequest struct {
	Competitors string `json:"competitors"`
}

type selectDirectionRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

type taskRequest struct {
	PromptText            string            `json:"prompt_text" binding:"required,max=4000"`
	DirectionID           *string           `json:"direction_id"`
	StyleLevers           map[string]string `json:"style_levers"`
	SourceLogoID          *string           `json:"source_logo_id"`
	GenerationType        string            `json:"generation_type" binding:"omitempty,generation_type"`
	RefinementInstruction *string           `json:"refinement_instruction"`
}

func (r taskRequest) task() models.Task {
	return models.Task{
		PromptText:            r.PromptText,
		DirectionID:           r.DirectionID,
		StyleLevers:           r.StyleLevers,
		SourceLogoID:          r.SourceLogoID,
		GenerationType:        models.GenerationType(r.GenerationType),
		RefinementInstruction: r.RefinementInstruction,
	}
}

type batchRequest struct {
	Tasks []taskRequest `json:"tasks" binding:"required,min=1,max=100,dive"`
}

type branchRequest struct {
	Instruction string `json:"instruction" binding:"max=500"`
}

type refineRequest struct {
	Instruction string `json:"instruction" binding:"required,max=500"`
}

// improveRequest names a stored logo or carries a base64 image; without
// weaknesses the image is analyzed first.
type improveRequest struct {
	LogoID     string   `json:"logo_id" binding:"required_without=Image"`
	Image      string   `json:"image" binding:"omitempty,base64"`
	Weaknesses []string `json:"weaknesses" binding:"max=10,dive,max=500"`
}

type analyzeRequest struct {
	Image string `json:"image" binding:"required,base64"`
}

type updateLogoRequest struct {
	IsFavorite *bool          `json:"is_favorite"`
	IsArchived *bool          `json:"is_archived"`
	Scores     *models.Scores `json:"scores"`
}

type winnerRequest struct {
	LogoID string `json:"logo_id"`
}

// jobResponse adds the rounded completion percentage to a job.
type jobResponse struct {
	models.BatchJob
	Percent int `json:"percent"`
}

func newJobResponse(j models.BatchJob) jobResponse {
	p := models.BatchProgress{Total: j.Total, Completed: j.Completed}
	return jobResponse{BatchJob: j, Percent: p.Percent()}
}
