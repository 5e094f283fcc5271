package ingest

type UploadRequest struct {
	Location string `form:"location" binding:"omitempty,max=50"`
	Year     int    `form:"year" binding:"omitempty,gt=0,lt=10000"`
	Async    bool   `form:"async"`
}

type UploadResponse struct {
	JobID        string         `json:"job_id"`
	Location     string         `json:"location"`
	Year         int            `json:"year"`
	Status       string         `json:"status"`
	TotalRecords int            `json:"total_records"`
	Attempted    int            `json:"attempted"`
	Succeeded    int            `json:"succeeded"`
	Superseded   bool           `json:"superseded,omitempty"`
	Coercions    map[string]int `json:"coercions,omitempty"`
}

func mapResultToResponse(res Result, total int) UploadResponse {
	return UploadResponse{
		JobID:        res.JobID,
		Location:     res.Partition.Location,
		Year:         res.Partition.Year,
		Status:       res.Status,
		TotalRecords: total,
		Attempted:    res.Attempted,
		Succeeded:    res.Succeeded,
		Superseded:   res.Superseded,
	}
}
