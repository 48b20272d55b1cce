package models

// SubmissionInput - проверенные данные одной отправки формы.
type SubmissionInput struct {
	Volume     float64
	VolumeText string
	Image      []byte
	ImageName  string
	ImageType  string
}

// CalculationResult - ответ сервиса расчёта после проверки схемы.
type CalculationResult struct {
	FillPercentage float64  `json:"fill_percentage"`
	FilledVolume   float64  `json:"filled_volume"`
	RenderedImage  string   `json:"3d_image,omitempty"`
	Volume3D       *float64 `json:"3d_volume,omitempty"`
}

// HasImage сообщает, прислал ли сервис визуализацию.
func (r CalculationResult) HasImage() bool {
	return r.RenderedImage != ""
}
