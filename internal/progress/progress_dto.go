package progress

import "time"

type ProgressQuery struct {
	Location string `form:"location" binding:"required,max=50"`
	Year     int    `form:"year" binding:"omitempty,gt=0"`
}

type ProgressResponse struct {
	Location        string     `json:"location"`
	Year            int        `json:"year"`
	JobID           string     `json:"job_id"`
	Status          string     `json:"status"`
	TotalRecords    int        `json:"total_records"`
	UploadedRecords int        `json:"uploaded_records"`
	Percent         float64    `json:"percent"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func mapToResponse(p UploadProgress) ProgressResponse {
	return ProgressResponse{
		Location:        p.Location,
		Year:            p.Year,
		JobID:           p.JobID,
		Status:          p.Status,
		TotalRecords:    p.TotalRecords,
		UploadedRecords: p.UploadedRecords,
		Percent:         p.Percent(),
		ErrorMessage:    p.ErrorMessage,
		StartedAt:       p.StartedAt,
		CompletedAt:     p.CompletedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
